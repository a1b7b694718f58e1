package indexer

// GlobalEventsSummaryKey identifies the single EventsSummary row.
const GlobalEventsSummaryKey = "GlobalEventsSummary"

// EventsSummary counts every handled event by kind. NextBlock is the first
// block not yet covered by the counts; zero means nothing was indexed.
type EventsSummary struct {
	ID            string `gorm:"primaryKey"`
	ApprovalCount int64  `gorm:"not null"`
	TransferCount int64  `gorm:"not null"`
	NextBlock     int64  `gorm:"not null"`
}

func (EventsSummary) TableName() string { return "events_summary" }

// Approval is one rETH Approval event.
type Approval struct {
	ID              string `gorm:"primaryKey"`
	Owner           string `gorm:"not null"`
	Spender         string `gorm:"not null"`
	Value           string `gorm:"type:numeric;not null"`
	BlockNumber     int64  `gorm:"index;not null"`
	EventsSummaryID string `gorm:"index;not null"`
}

func (Approval) TableName() string { return "reth_approval" }

// Transfer is one rETH Transfer event.
type Transfer struct {
	ID              string `gorm:"primaryKey"`
	From            string `gorm:"column:from_address;not null"`
	To              string `gorm:"column:to_address;not null"`
	Value           string `gorm:"type:numeric;not null"`
	BlockNumber     int64  `gorm:"index;not null"`
	EventsSummaryID string `gorm:"index;not null"`
}

func (Transfer) TableName() string { return "reth_transfer" }
