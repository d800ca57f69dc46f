package handler

import (
	"errors"
	"net/http"

	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/pow"
	"ticketdesk/internal/pkg/req"
	"ticketdesk/internal/pkg/resp"
)

// PowVerifyInput carries a solved challenge.
type PowVerifyInput struct {
	Nonce   string `json:"nonce"`
	Counter string `json:"counter"`
}

// HandlePowChallenge issues a nonce and the difficulty it must be solved at.
func HandlePowChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"nonce":      deps.Pow.GenerateNonce(),
			"difficulty": deps.Pow.Difficulty(),
		})
	}
}

// HandlePowVerify trades a solved challenge for a single-use proof token.
func HandlePowVerify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PowVerifyInput
		if err := req.BindJSON(w, r, &input); err != nil {
			resp.RespondError(w, r, err)
			return
		}
		if input.Nonce == "" || input.Counter == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		token, err := deps.Pow.ValidateProof(input.Nonce, input.Counter)
		switch {
		case errors.Is(err, pow.ErrNonceInvalid), errors.Is(err, pow.ErrProofInsufficient):
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		case err != nil:
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token":      token,
			"header":     pow.TokenHeaderKey,
			"expires_in": int(pow.ProofTokenDuration.Seconds()),
		})
	}
}
