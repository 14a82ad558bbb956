package storage

import "time"

// Account is a ledger account. Addresses are lowercase hex of the 32-byte identifier.
type Account struct {
	Address   string `gorm:"primaryKey"`
	Balance   uint64 `gorm:"not null;default:0"`
	Space     int    `gorm:"not null;default:0"`
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RandomnessRequest struct {
	Request     string `gorm:"primaryKey"`
	Raffle      string `gorm:"index;not null"`
	Slot        uint64 `gorm:"not null"`
	Fulfilled   bool   `gorm:"index;not null;default:false"`
	FulfilledAt *time.Time
	CreatedAt   time.Time
}

type ProgramRegistration struct {
	ProgramID        string `gorm:"primaryKey"`
	UpgradeAuthority string `gorm:"not null"`
	UpdatedAt        time.Time
}

type NotificationKind = string

const (
	WinnerSelectedNotification NotificationKind = "WinnerSelected"
)

type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement"`
	Kind      NotificationKind `gorm:"index;not null"`
	Raffle    string           `gorm:"index;not null"`
	Slot      uint64           `gorm:"not null"`
	Payload   []byte           `gorm:"not null"`
	CreatedAt time.Time
}
