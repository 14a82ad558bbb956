package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lifecycle metrics
var (
	RafflesOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raffle_opened_total",
		Help: "Total number of raffles opened",
	})

	TicketsSold = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raffle_tickets_sold_total",
		Help: "Total number of tickets sold across all raffles",
	})

	TicketRevenue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raffle_ticket_revenue_total",
		Help: "Total amount paid for tickets",
	})

	DrawsRequested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raffle_draws_requested_total",
		Help: "Total number of randomness requests made for draws",
	})

	WinnersSelected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raffle_winners_selected_total",
		Help: "Total number of settled draws",
	})

	PrizesClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raffle_prizes_claimed_total",
		Help: "Total number of prizes claimed",
	})

	PrizeAmountClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raffle_prize_amount_claimed_total",
		Help: "Total amount paid out to winners",
	})

	RafflesClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raffle_closed_total",
		Help: "Total number of raffle records closed",
	})
)

// Oracle metrics
var (
	PendingRandomnessRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "raffle_pending_randomness_requests",
		Help: "Randomness requests seen by the last tracker pass",
	})

	SettleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "raffle_settle_duration_seconds",
		Help:    "Time to settle one randomness request",
		Buckets: prometheus.DefBuckets,
	})
)

// Error metrics
var (
	InstructionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_instructions_rejected_total",
			Help: "Total number of rejected instructions by instruction and error code",
		},
		[]string{"instruction", "code"},
	)
)
