package api

import (
	"encoding/hex"
	"net/http"

	"raffle-ledger/internal/blockchain"
	"raffle-ledger/internal/oracle"
	"raffle-ledger/internal/processor"

	"github.com/gin-gonic/gin"
	"github.com/tonkeeper/tongo/ton"
)

type openRaffleRequest struct {
	Manager     string `json:"manager" binding:"required"`
	TicketPrice uint64 `json:"ticket_price"`
	Capacity    uint32 `json:"capacity"`
	EndTime     int64  `json:"end_time" binding:"required"`
}

type buyTicketsRequest struct {
	Buyer string `json:"buyer" binding:"required"`
	Count uint32 `json:"count"`
}

type callerRequest struct {
	Caller string `json:"caller" binding:"required"`
}

type claimRequest struct {
	Winner string `json:"winner" binding:"required"`
}

type airdropRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
}

type verifyRequest struct {
	Request string `json:"request" binding:"required"`
	Slot    uint64 `json:"slot"`
	Proof   string `json:"proof" binding:"required"`
}

type raffleResponse struct {
	Address           string   `json:"address"`
	Manager           string   `json:"manager"`
	TicketPrice       uint64   `json:"ticket_price"`
	Capacity          uint32   `json:"capacity"`
	EndTime           int64    `json:"end_time"`
	Entrants          []string `json:"entrants"`
	TicketsLeft       uint32   `json:"tickets_left"`
	DrawRequested     bool     `json:"draw_requested"`
	WinnerIndex       *uint32  `json:"winner_index"`
	Winner            string   `json:"winner,omitempty"`
	RandomnessRequest string   `json:"randomness_request,omitempty"`
	RandomnessSlot    uint64   `json:"randomness_slot,omitempty"`
	Claimed           bool     `json:"claimed"`
	Status            string   `json:"status"`
	Prize             uint64   `json:"prize"`
	Balance           uint64   `json:"balance"`
	Now               int64    `json:"now"`
}

func newRaffleResponse(view *processor.RaffleView) raffleResponse {
	r := view.Record
	entrants := make([]string, len(r.Entrants))
	for i, entrant := range r.Entrants {
		entrants[i] = entrant.Hex()
	}

	response := raffleResponse{
		Address:       view.Address.Hex(),
		Manager:       r.Manager.Hex(),
		TicketPrice:   r.TicketPrice,
		Capacity:      r.Capacity,
		EndTime:       r.EndTime,
		Entrants:      entrants,
		TicketsLeft:   r.TicketsLeft(),
		DrawRequested: r.DrawRequested,
		WinnerIndex:   r.WinnerIndex,
		Claimed:       r.Claimed,
		Status:        string(view.Status),
		Prize:         r.Prize(),
		Balance:       view.Balance,
		Now:           view.Now,
	}
	if winner, ok := r.Winner(); ok {
		response.Winner = winner.Hex()
	}
	if !r.RandomnessHandle.IsZero() {
		response.RandomnessRequest = r.RandomnessHandle.Request.Hex()
		response.RandomnessSlot = r.RandomnessHandle.Slot
	}
	return response
}

// parseAddress reads a 32-byte hex identifier from the named path parameter or body field.
func parseAddress(c *gin.Context, field, value string) (ton.Bits256, bool) {
	address, err := ton.ParseHash(value)
	if err != nil {
		badRequest(c, "invalid "+field+": expected 64 hex characters")
		return ton.Bits256{}, false
	}
	return address, true
}

func bindJSON(c *gin.Context, body any) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func (s *Server) OpenRaffle(c *gin.Context) {
	var body openRaffleRequest
	if !bindJSON(c, &body) {
		return
	}
	manager, ok := parseAddress(c, "manager", body.Manager)
	if !ok {
		return
	}

	address, err := s.processor.Open(c.Request.Context(), processor.OpenParams{
		Manager:     manager,
		TicketPrice: body.TicketPrice,
		Capacity:    body.Capacity,
		EndTime:     body.EndTime,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"address": address.Hex()})
}

func (s *Server) GetRaffle(c *gin.Context) {
	address, ok := parseAddress(c, "address", c.Param("address"))
	if !ok {
		return
	}

	view, err := s.processor.Raffle(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newRaffleResponse(view))
}

func (s *Server) BuyTickets(c *gin.Context) {
	address, ok := parseAddress(c, "address", c.Param("address"))
	if !ok {
		return
	}
	var body buyTicketsRequest
	if !bindJSON(c, &body) {
		return
	}
	buyer, ok := parseAddress(c, "buyer", body.Buyer)
	if !ok {
		return
	}

	cost, err := s.processor.Buy(c.Request.Context(), address, buyer, body.Count)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cost": cost, "count": body.Count})
}

func (s *Server) RequestDraw(c *gin.Context) {
	address, ok := parseAddress(c, "address", c.Param("address"))
	if !ok {
		return
	}
	var body callerRequest
	if !bindJSON(c, &body) {
		return
	}
	caller, ok := parseAddress(c, "caller", body.Caller)
	if !ok {
		return
	}

	handle, err := s.processor.RequestDraw(c.Request.Context(), address, caller)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"request": handle.Request.Hex(), "slot": handle.Slot})
}

func (s *Server) ClaimPrize(c *gin.Context) {
	address, ok := parseAddress(c, "address", c.Param("address"))
	if !ok {
		return
	}
	var body claimRequest
	if !bindJSON(c, &body) {
		return
	}
	winner, ok := parseAddress(c, "winner", body.Winner)
	if !ok {
		return
	}

	prize, err := s.processor.Claim(c.Request.Context(), address, winner)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prize": prize})
}

func (s *Server) CloseRaffle(c *gin.Context) {
	address, ok := parseAddress(c, "address", c.Param("address"))
	if !ok {
		return
	}
	var body callerRequest
	if !bindJSON(c, &body) {
		return
	}
	caller, ok := parseAddress(c, "caller", body.Caller)
	if !ok {
		return
	}

	if err := s.processor.Close(c.Request.Context(), address, caller); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ListNotifications(c *gin.Context) {
	address, ok := parseAddress(c, "address", c.Param("address"))
	if !ok {
		return
	}

	notifications, err := s.processor.Ledger().Notifications(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(notifications))
	for _, n := range notifications {
		item := gin.H{
			"id":         n.ID,
			"kind":       n.Kind,
			"slot":       n.Slot,
			"boc":        hex.EncodeToString(n.Payload),
			"created_at": n.CreatedAt,
		}
		if message, err := blockchain.UnmarshalWinnerSelected(n.Payload); err == nil {
			item["winner_index"] = message.WinnerIndex
			item["winner"] = message.Winner.Hex()
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

func (s *Server) GetAccount(c *gin.Context) {
	address, ok := parseAddress(c, "address", c.Param("address"))
	if !ok {
		return
	}

	balance, err := s.processor.Ledger().Balance(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": address.Hex(), "balance": balance})
}

func (s *Server) Airdrop(c *gin.Context) {
	address, ok := parseAddress(c, "address", c.Param("address"))
	if !ok {
		return
	}
	var body airdropRequest
	if !bindJSON(c, &body) {
		return
	}

	if err := s.processor.Ledger().Airdrop(c.Request.Context(), address, body.Amount); err != nil {
		writeError(c, err)
		return
	}

	balance, err := s.processor.Ledger().Balance(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address.Hex(), "balance": balance})
}

func (s *Server) GetOracle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"identity": s.processor.Program().Config().OracleIdentity.Hex()})
}

// VerifyRandomness lets observers check that a proof was produced by the oracle key.
func (s *Server) VerifyRandomness(c *gin.Context) {
	var body verifyRequest
	if !bindJSON(c, &body) {
		return
	}
	request, ok := parseAddress(c, "request", body.Request)
	if !ok {
		return
	}
	proof, err := hex.DecodeString(body.Proof)
	if err != nil {
		badRequest(c, "invalid proof: expected hex")
		return
	}

	randomness, err := oracle.Verify(s.processor.Program().Config().OracleIdentity, request, body.Slot, proof)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "randomness": hex.EncodeToString(randomness[:])})
}
