package api

import (
	"net/http" // HTTP status codes

	"home_eats/internal/service" // Wallet ledger

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money amounts
)

// AmountRequest is the deposit and withdraw body; amount may be a number or a string
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// GetWalletHandler returns the caller's wallet, creating it on first access
func GetWalletHandler(ledger *service.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, err := ledger.GetOrCreate(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, wallet)
	}
}

// TransactionsHandler returns the caller's ledger, newest first
func TransactionsHandler(ledger *service.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := pageFrom(c)
		txns, total, err := ledger.Transactions(c.Request.Context(), currentUser(c).ID, page)
		if err != nil {
			respondError(c, err)
			return
		}
		paginated(c, txns, total, page)
	}
}

// DepositHandler credits the caller's wallet
func DepositHandler(ledger *service.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AmountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"amount": "Invalid amount"}) // Not a number
			return
		}
		wallet, err := ledger.Deposit(c.Request.Context(), currentUser(c).ID, req.Amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Money added successfully",
			"balance": wallet.Balance,
			"wallet":  wallet,
		})
	}
}

// WithdrawHandler is kept routable but the facility is switched off
func WithdrawHandler(ledger *service.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AmountRequest
		_ = c.ShouldBindJSON(&req) // The body does not change the answer
		respondError(c, ledger.Withdraw(c.Request.Context(), currentUser(c).ID, req.Amount))
	}
}
