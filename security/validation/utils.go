package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/starnotary/notary/block"
	"github.com/starnotary/notary/errors"
	"golang.org/x/text/unicode/norm"
)

var InjectionRegexp = BuildInjectionPatterns()

var alphanumericRegexp = regexp.MustCompile(`[a-zA-Z0-9]`)

// BuildInjectionPatterns builds regexp for injection detection (case-insensitive)
func BuildInjectionPatterns() *regexp.Regexp {
	parts := make([]string, 0, len(InjectionPatterns))
	for _, pattern := range InjectionPatterns {
		pNorm := norm.NFC.String(pattern)
		parts = append(parts, regexp.QuoteMeta(pNorm))
	}
	// (?i) for case-insensitive
	return regexp.MustCompile("(?i)" + strings.Join(parts, "|"))
}

func invalid(format string, args ...interface{}) error {
	return errors.NewError(errors.ErrCodeInvalidRequest, fmt.Sprintf(format, args...))
}

// validateLength checks the rune count of an NFC normalized value. max <= 0
// disables the upper bound.
func validateLength(fieldName, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return invalid(errors.ErrMsgFieldRequired, fieldName)
	}
	if n < min {
		return invalid(errors.ErrMsgFieldTooShort, fieldName, min)
	}
	if max > 0 && n > max {
		return invalid(errors.ErrMsgFieldTooLong, fieldName, max)
	}
	return nil
}

// ValidateAddress normalizes and checks a wallet address.
func ValidateAddress(address string) (string, error) {
	normalized := norm.NFC.String(strings.TrimSpace(address))
	if err := validateLength(AddressField, normalized, MinAddressLength, MaxAddressLength); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateSignature checks the encoded signature field. Its content is
// checked by the signature verifier.
func ValidateSignature(sig string) error {
	return validateLength(SignatureField, sig, 1, MaxSignatureLength)
}

func validateCoordinate(fieldName, value string, required bool) (string, error) {
	normalized := norm.NFC.String(value)
	if normalized == "" && !required {
		return "", nil
	}
	if err := validateLength(fieldName, normalized, MinStarFieldLength, 0); err != nil {
		return "", err
	}
	if InjectionRegexp.MatchString(normalized) {
		return "", invalid(errors.ErrMsgInvalidCharacters, fieldName)
	}
	return normalized, nil
}

// IsASCII reports whether s holds only 7-bit characters.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// CountWords counts space separated words the way the story limit is defined:
// every single space starts a new word.
func CountWords(s string) int {
	return len(strings.Split(s, " "))
}

// ValidateStory checks the plain text story before it is hex encoded.
// maxWords <= 0 applies MaxStoryWords.
func ValidateStory(story string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = MaxStoryWords
	}
	normalized := norm.NFC.String(story)
	if err := validateLength(StoryField, normalized, MinStarFieldLength, 0); err != nil {
		return "", err
	}
	if !alphanumericRegexp.MatchString(normalized) {
		return "", invalid(errors.ErrMsgInvalidCharacters, StoryField)
	}
	if !IsASCII(normalized) {
		return "", invalid(errors.ErrMsgInvalidCharacters, StoryField)
	}
	if CountWords(normalized) > maxWords {
		return "", invalid(errors.ErrMsgStoryTooManyWords, maxWords)
	}
	return normalized, nil
}

// ValidateStar checks every field of a star and returns its normalized copy.
// Any client supplied storyDecoded is dropped.
func ValidateStar(star *block.Star, maxWords int) (block.Star, error) {
	if star == nil {
		return block.Star{}, invalid(errors.ErrMsgFieldRequired, StarField)
	}

	var (
		out block.Star
		err error
	)
	if out.Dec, err = validateCoordinate(DecField, star.Dec, true); err != nil {
		return block.Star{}, err
	}
	if out.RA, err = validateCoordinate(RAField, star.RA, true); err != nil {
		return block.Star{}, err
	}
	if out.Magnitude, err = validateCoordinate(MagnitudeField, star.Magnitude, false); err != nil {
		return block.Star{}, err
	}
	if out.Constellation, err = validateCoordinate(ConstellationField, star.Constellation, false); err != nil {
		return block.Star{}, err
	}
	if out.Story, err = ValidateStory(star.Story, maxWords); err != nil {
		return block.Star{}, err
	}
	return out, nil
}
