package api

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/starnotary/notary/block"
	"github.com/starnotary/notary/errors"
	"github.com/starnotary/notary/jsonx"
	"github.com/starnotary/notary/logx"
	"github.com/starnotary/notary/security/validation"
)

const (
	addressSelector = "address:"
	hashSelector    = "hash:"
)

type RequestValidationReq struct {
	Address string `json:"address"`
}

type SignatureValidationReq struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

type StarRegistrationReq struct {
	Address string      `json:"address"`
	Star    *block.Star `json:"star"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ChainLength uint64 `json:"chainLength"`
}

// decodeBody reads at most MaxBodyBytes of the request body into v.
func (s *APIServer) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.NewError(errors.ErrCodeInvalidRequest, fmt.Sprintf(errors.ErrMsgRequestBodyTooLarge, s.MaxBodyBytes))
		}
		return errors.Wrap(errors.ErrCodeInvalidRequest, "could not read request body", err)
	}
	if len(body) == 0 {
		return errors.NewError(errors.ErrCodeInvalidRequest, "Request body is empty")
	}
	if err := jsonx.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "Request body is not valid JSON", err)
	}
	return nil
}

func (s *APIServer) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseUint(r.PathValue("height"), 10, 64)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, StatusRetrievalFailed, badRequestPrefix+errors.ErrMsgInvalidHeight)
		return
	}

	blk, err := s.Ledger.GetBlock(height)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			writeFailure(w, http.StatusBadRequest, StatusRetrievalFailed, badRequestPrefix+fmt.Sprintf(errors.ErrMsgBlockNotFound, height))
			return
		}
		writeError(w, StatusRetrievalFailed, err)
		return
	}

	writeJSON(w, http.StatusOK, blk.DecodedView())
}

// handleGetStars serves /stars/address:{address} and /stars/hash:{hash}.
func (s *APIServer) handleGetStars(w http.ResponseWriter, r *http.Request) {
	selector := r.PathValue("selector")

	switch {
	case strings.HasPrefix(selector, addressSelector):
		s.starsByAddress(w, strings.TrimPrefix(selector, addressSelector))
	case strings.HasPrefix(selector, hashSelector):
		s.starByHash(w, strings.TrimPrefix(selector, hashSelector))
	default:
		writeFailure(w, http.StatusBadRequest, StatusStarRetrieval, badRequestPrefix+"Unknown star selector: "+selector)
	}
}

func (s *APIServer) starsByAddress(w http.ResponseWriter, address string) {
	if address == "" {
		writeFailure(w, http.StatusBadRequest, StatusStarRetrieval, badRequestPrefix+fmt.Sprintf(errors.ErrMsgFieldRequired, validation.AddressField))
		return
	}

	blocks, err := s.Ledger.FindByAddress(address)
	if err != nil {
		logx.Error("API", fmt.Sprintf("Could not retrieve stars for wallet %s: %v", address, err))
		writeFailure(w, http.StatusInternalServerError, StatusInternal, "Could not retrieve stars for wallet: "+address)
		return
	}
	if len(blocks) == 0 {
		writeFailure(w, http.StatusBadRequest, StatusStarRetrieval, badRequestPrefix+"No stars for wallet: "+address)
		return
	}

	views := make([]block.View, 0, len(blocks))
	for _, blk := range blocks {
		views = append(views, blk.DecodedView())
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *APIServer) starByHash(w http.ResponseWriter, hash string) {
	if hash == "" {
		writeFailure(w, http.StatusBadRequest, StatusStarRetrieval, badRequestPrefix+fmt.Sprintf(errors.ErrMsgFieldRequired, "hash"))
		return
	}

	blk, err := s.Ledger.FindByHash(hash)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			writeFailure(w, http.StatusBadRequest, StatusStarRetrieval, badRequestPrefix+"No star for blockHash: "+hash)
			return
		}
		logx.Error("API", fmt.Sprintf("Could not retrieve star for blockHash %s: %v", hash, err))
		writeFailure(w, http.StatusInternalServerError, StatusInternal, "Could not retrieve star for blockHash: "+hash)
		return
	}

	writeJSON(w, http.StatusOK, blk.DecodedView())
}

func (s *APIServer) handleRequestValidation(w http.ResponseWriter, r *http.Request) {
	var req RequestValidationReq
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, StatusInputValidation, err)
		return
	}
	address, err := validation.ValidateAddress(req.Address)
	if err != nil {
		writeError(w, StatusInputValidation, err)
		return
	}

	token, err := s.Window.RequestWindow(address)
	if err != nil {
		writeError(w, StatusInputValidation, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *APIServer) handleValidateSignature(w http.ResponseWriter, r *http.Request) {
	var req SignatureValidationReq
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, StatusInputValidation, err)
		return
	}
	address, err := validation.ValidateAddress(req.Address)
	if err != nil {
		writeError(w, StatusInputValidation, err)
		return
	}
	if err := validation.ValidateSignature(req.Signature); err != nil {
		writeError(w, StatusInputValidation, err)
		return
	}

	status, err := s.Window.Authorize(address, req.Signature)
	if err != nil {
		writeError(w, StatusSignatureFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *APIServer) handlePostBlock(w http.ResponseWriter, r *http.Request) {
	var req StarRegistrationReq
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, StatusInputValidation, err)
		return
	}
	address, err := validation.ValidateAddress(req.Address)
	if err != nil {
		writeError(w, StatusInputValidation, err)
		return
	}
	star, err := validation.ValidateStar(req.Star, s.MaxStoryWords)
	if err != nil {
		writeError(w, StatusInputValidation, err)
		return
	}

	permit, err := s.Window.ConsumePermit(address)
	if err != nil {
		writeError(w, StatusRegistrationFailed, err)
		return
	}

	body, err := block.NewStarBody(address, star)
	if err != nil {
		s.Window.RestorePermit(permit)
		writeError(w, StatusRegistrationFailed, errors.Wrap(errors.ErrCodeInternal, "could not encode star", err))
		return
	}

	blk, err := s.Ledger.AppendBlock(body)
	if err != nil {
		if httpStatusOf(errors.CodeOf(err)) == http.StatusInternalServerError {
			s.Window.RestorePermit(permit)
			logx.Error("API", fmt.Sprintf("Could not add block to Blockchain for %s: %v", address, err))
			writeFailure(w, http.StatusInternalServerError, StatusInternal, "Could not add block to Blockchain.")
			return
		}
		writeError(w, StatusRegistrationFailed, err)
		return
	}

	logx.Info("API", fmt.Sprintf("Star registered by %s at height %d", address, blk.Height))
	writeJSON(w, http.StatusOK, blk)
}

func (s *APIServer) handleValidateChain(w http.ResponseWriter, r *http.Request) {
	report, err := s.Ledger.ValidateChain()
	if err != nil {
		writeError(w, StatusRetrievalFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	length, err := s.Ledger.ChainLength()
	if err != nil {
		logx.Error("API", "Health check failed: ", err)
		writeFailure(w, http.StatusInternalServerError, StatusInternal, errors.ErrMsgInternal)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", ChainLength: length})
}
