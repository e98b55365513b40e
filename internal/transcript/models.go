package transcript

// SessionRecord is one automated run of a child command.
type SessionRecord struct {
	SessionID string `gorm:"column:session_id;primaryKey"`
	Command   string `gorm:"column:command;not null;default:''"`
	Reason    string `gorm:"column:reason;not null;default:''"`
	StartedAt int64  `gorm:"column:started_at;not null;default:0"`
	EndedAt   int64  `gorm:"column:ended_at;not null;default:0"`
}

func (SessionRecord) TableName() string { return "sessions" }

// ExchangeRecord is one prompt/response pair written during a run.
type ExchangeRecord struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID string `gorm:"column:session_id;not null;index"`
	Seq       int    `gorm:"column:seq;not null;default:0"`
	Prompt    string `gorm:"column:prompt;not null;default:''"`
	Response  string `gorm:"column:response;not null;default:''"`
	SentAt    int64  `gorm:"column:sent_at;not null;default:0"`
}

func (ExchangeRecord) TableName() string { return "exchanges" }
