package api

import (
	"net/http" // HTTP status codes

	"home_eats/internal/service" // Bank account service

	"github.com/gin-gonic/gin" // Gin web framework
)

// BankAccountRequest is the add-account body
type BankAccountRequest struct {
	AccountHolderName string `json:"account_holder_name"`
	BankName          string `json:"bank_name"`
	AccountNumber     string `json:"account_number"`
	IFSCCode          string `json:"ifsc_code"`
	IsPrimary         *bool  `json:"is_primary"` // Omitted means primary only for the first account
}

// ListBankAccountsHandler returns the caller's accounts, primary first
func ListBankAccountsHandler(banks *service.BankAccounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := banks.List(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, accounts)
	}
}

// AddBankAccountHandler stores a payout account for the caller
func AddBankAccountHandler(banks *service.BankAccounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BankAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidBody(c)
			return
		}
		account, err := banks.Add(c.Request.Context(), currentUser(c).ID, service.BankAccountInput{
			AccountHolderName: req.AccountHolderName,
			BankName:          req.BankName,
			AccountNumber:     req.AccountNumber,
			IFSCCode:          req.IFSCCode,
			IsPrimary:         req.IsPrimary,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, account)
	}
}

// DeleteBankAccountHandler removes one of the caller's accounts
func DeleteBankAccountHandler(banks *service.BankAccounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := banks.Delete(c.Request.Context(), id, currentUser(c).ID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
