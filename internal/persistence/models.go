package persistence

import "time"

// User is an account allowed to sign in.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PasswordHash string
	Avatar       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Resource is a bookable room or piece of equipment.
type Resource struct {
	ID        string
	Name      string
	Type      string
	Location  string
	Capacity  int
	Equipment []string
	Tags      []string
	ImageURL  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation books a resource for a half-open [Start, End) interval.
// ResourceName and UserName are filled by reads only.
type Reservation struct {
	ID           string
	ResourceID   string
	UserID       string
	Start        time.Time
	End          time.Time
	Status       string
	Description  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResourceName string
	UserName     string
}

// TimeBlock is a start/end pair of "HH:MM" strings.
type TimeBlock struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Settings is the singleton row of institutional scheduling rules.
type Settings struct {
	StartTime         string
	EndTime           string
	ClassBlockMinutes int
	OperatingDays     []int
	ClassBlocks       []TimeBlock
	Breaks            []TimeBlock
	ResourceTags      []string
	UpdatedAt         time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
