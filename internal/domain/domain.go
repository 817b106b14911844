package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleClinician  Role = "clinician"
	RoleNurse      Role = "nurse"
	RoleScientist  Role = "scientist"
	RoleReadOnly   Role = "readonly"
	RoleAdmissions Role = "admissions"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleClinician, RoleNurse, RoleScientist, RoleReadOnly, RoleAdmissions:
		return true
	}
	return false
}

type User struct {
	ID        uint       `gorm:"primaryKey"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Username     string `gorm:"column:username;type:varchar(150);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	FirstName    string `gorm:"column:first_name;type:varchar(100)"`
	LastName     string `gorm:"column:last_name;type:varchar(100)"`
	Role         Role   `gorm:"column:role;type:varchar(30);not null;index"`

	IsActive          bool       `gorm:"column:is_active;default:true;index"`
	FailedLoginCount  int        `gorm:"column:failed_login_count;default:0"`
	LockedUntil       *time.Time `gorm:"column:locked_until"`
	LastLoginAt       *time.Time `gorm:"column:last_login_at"`
	PasswordChangedAt time.Time  `gorm:"column:password_changed_at"`
}

func (User) TableName() string {
	return "users"
}

// IsLocked returns true if the account is temporarily locked due to failed logins.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserProfile holds the per-user settings the client reads on start-up.
type UserProfile struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	UserID uint `gorm:"column:user_id;uniqueIndex;not null"`
	User   User `gorm:"foreignKey:UserID"`

	Readonly            bool `gorm:"column:readonly;default:false"`
	CanExtract          bool `gorm:"column:can_extract;default:false"`
	RestrictedOnly      bool `gorm:"column:restricted_only;default:false"`
	ForcePasswordChange bool `gorm:"column:force_password_change"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

func (p *UserProfile) ToDict() map[string]any {
	roles := []string{}
	if p.User.Role != "" {
		roles = append(roles, string(p.User.Role))
	}
	return map[string]any{
		"user_id":               p.UserID,
		"username":              p.User.Username,
		"full_name":             p.User.FullName(),
		"readonly":              p.Readonly,
		"can_extract":           p.CanExtract,
		"restricted_only":       p.RestrictedOnly,
		"force_password_change": p.ForcePasswordChange,
		"roles":                 roles,
	}
}

// Caller describes who is behind a request. UserID is zero for anonymous
// callers, and a nil *Caller is treated the same way.
type Caller struct {
	UserID    uint
	Username  string
	Role      Role
	IP        string
	RequestID string
}

func (c *Caller) Authenticated() bool {
	return c != nil && c.UserID != 0
}

// ID returns the caller's user id, or nil for anonymous callers.
func (c *Caller) ID() *uint {
	if !c.Authenticated() {
		return nil
	}
	id := c.UserID
	return &id
}

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionRead   AuditAction = "read"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
	ActionLogin  AuditAction = "login"
	ActionLogout AuditAction = "logout"
)

type AuditLog struct {
	ID         uint      `gorm:"primaryKey"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	UserID    *uint  `gorm:"column:user_id;index"`
	UserRole  Role   `gorm:"column:user_role;type:varchar(30)"`
	IPAddress string `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(50);index"`

	RequestID  string `gorm:"column:request_id;type:varchar(50);index"`
	StatusCode int    `gorm:"column:status_code"`

	Changes string `gorm:"column:changes;type:text"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID   uint   `json:"sub"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
