package api

import (
	"errors"
	"net/http"

	"raffle-ledger/internal/ledger"
	"raffle-ledger/internal/logger"
	"raffle-ledger/internal/raffle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Code    string `json:"code"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// statusOf maps an instruction failure to its HTTP status.
func statusOf(err error) (int, errorResponse) {
	var raffleErr *raffle.Error
	switch {
	case errors.As(err, &raffleErr):
		status := http.StatusInternalServerError
		switch {
		case raffleErr == raffle.ErrRaffleNotFound:
			status = http.StatusNotFound
		case raffleErr.Kind == raffle.ValidationError:
			status = http.StatusBadRequest
		case raffleErr.Kind == raffle.StateError:
			status = http.StatusConflict
		case raffleErr.Kind == raffle.AuthorizationError:
			status = http.StatusForbidden
		case raffleErr.Kind == raffle.IntegrityError:
			status = http.StatusUnprocessableEntity
		}
		return status, errorResponse{Code: raffleErr.Code, Kind: string(raffleErr.Kind), Message: raffleErr.Message}
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusConflict, errorResponse{Code: "InsufficientFunds", Kind: "ledger", Message: err.Error()}
	case errors.Is(err, ledger.ErrAccountExists):
		return http.StatusConflict, errorResponse{Code: "AccountExists", Kind: "ledger", Message: err.Error()}
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return http.StatusConflict, errorResponse{Code: "BalanceOverflow", Kind: "ledger", Message: err.Error()}
	case errors.Is(err, ledger.ErrAccountTooLarge):
		return http.StatusBadRequest, errorResponse{Code: "AccountTooLarge", Kind: "ledger", Message: err.Error()}
	case errors.Is(err, ledger.ErrSelfTransfer):
		return http.StatusBadRequest, errorResponse{Code: "SelfTransfer", Kind: "ledger", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorResponse{Code: "Internal", Message: "internal error"}
	}
}

func writeError(c *gin.Context, err error) {
	status, body := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error("http: internal error", zap.String("request id", c.GetString("request_id")), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Code: "BadRequest", Message: message})
}
