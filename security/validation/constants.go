package validation

const (
	MinAddressLength   = 10
	MaxAddressLength   = 34
	MaxSignatureLength = 88
	MinStarFieldLength = 3
	MaxStoryWords      = 250

	DefaultRequestBodyLimit = 128 * 1024 // 128 KB

	AddressField       = "address"
	SignatureField     = "signature"
	StarField          = "star"
	DecField           = "star.dec"
	RAField            = "star.ra"
	MagnitudeField     = "star.magnitude"
	ConstellationField = "star.constellation"
	StoryField         = "star.story"
)

// InjectionPatterns are rejected in the coordinate fields of a star. The
// story is free text and is only checked for ASCII.
var InjectionPatterns = []string{
	"${{", "{{", "}}", "${", "#{", "{%", "%}", "{{{", // templates/SSTI
	"%0a", "%0d", "%0a%0d", "%00", "%27", "%22", "%3c", "%3e", // encoded attacks (decode first)
	"${jndi:", "ldap://", "ldaps://", // JNDI/ldap
	"<script", "javascript:", // markup
}
