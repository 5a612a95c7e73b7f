package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Preferred language codes accepted on a user profile.
const (
	LangEnglish = "en"
	LangBengali = "bn"
	LangHindi   = "hi"
)

// ValidLanguage reports whether code is one of the accepted preferred
// language values.
func ValidLanguage(code string) bool {
	switch code {
	case LangEnglish, LangBengali, LangHindi:
		return true
	}
	return false
}

// UserRecord is a single rewards-app user as stored in the remote record
// store under users/<emailKey>.json. The console only ever holds a transient
// working copy; the store is the source of truth.
type UserRecord struct {
	Email               string          `json:"email"`
	Name                string          `json:"name"`
	Phone               string          `json:"phone"`
	Password            string          `json:"password,omitempty"` // stored credential, stripped from API responses
	Coins               int64           `json:"coins"`
	Diamonds            int64           `json:"diamonds"`
	Earnings            decimal.Decimal `json:"earnings"`
	Streak              int64           `json:"streak"`
	IsActive            bool            `json:"isActive"`
	PreferredLanguage   string          `json:"preferredLanguage"`
	DailyUnlockedGames  bool            `json:"dailyUnlockedGames"`
	DailyUnlockedVideos bool            `json:"dailyUnlockedVideos"`
	JoinDate            time.Time       `json:"joinDate"`
	LastLogin           time.Time       `json:"lastLogin"`
	LastUpdated         time.Time       `json:"lastUpdated"`
	LastUpdatedBy       string          `json:"lastUpdatedBy,omitempty"`

	// Revision counts successful saves from this console. Zero means the
	// record has never been stamped; writes are unconditional last-write-wins
	// overwrites either way.
	Revision int64 `json:"revision,omitempty"`
}

// Sanitized returns a copy of the record safe to return from the API:
// the stored credential is cleared.
func (u UserRecord) Sanitized() UserRecord {
	u.Password = ""
	return u
}

// EditablePatch is the restricted subset of UserRecord fields an admin may
// modify. Pointer fields distinguish "leave unchanged" from an explicit
// zero value.
type EditablePatch struct {
	Coins               *int64           `json:"coins,omitempty"`
	Diamonds            *int64           `json:"diamonds,omitempty"`
	Earnings            *decimal.Decimal `json:"earnings,omitempty"`
	Streak              *int64           `json:"streak,omitempty"`
	IsActive            *bool            `json:"isActive,omitempty"`
	PreferredLanguage   *string          `json:"preferredLanguage,omitempty"`
	DailyUnlockedGames  *bool            `json:"dailyUnlockedGames,omitempty"`
	DailyUnlockedVideos *bool            `json:"dailyUnlockedVideos,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p EditablePatch) IsZero() bool {
	return p.Coins == nil && p.Diamonds == nil && p.Earnings == nil &&
		p.Streak == nil && p.IsActive == nil && p.PreferredLanguage == nil &&
		p.DailyUnlockedGames == nil && p.DailyUnlockedVideos == nil
}
