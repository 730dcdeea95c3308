package models

import "time"

// Meal types
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
)

// MealTypes lists the meal slots in serving order.
var MealTypes = []string{MealBreakfast, MealLunch, MealDinner}

// SkipItemID is the pseudo-item a student picks to skip a meal.
// It is always votable and is never a catalog entry.
const (
	SkipItemID = "skip"
	SkipLabel  = "Skip Meal"
)

// Complaint status constants
const (
	ComplaintPending  = "pending"
	ComplaintResolved = "resolved"
)

// Session roles
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// IsMealType reports whether s names a meal slot.
func IsMealType(s string) bool {
	for _, m := range MealTypes {
		if m == s {
			return true
		}
	}
	return false
}

// Request types

type LoginRequest struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterStudentRequest struct {
	StudentID string `json:"student_id" validate:"required,number,max=10"`
	Name      string `json:"name" validate:"required,max=100"`
}

type ItemRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	MealType    string `json:"meal_type" validate:"required,oneof=breakfast lunch dinner"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateItemRequest carries a partial update; nil fields are left alone.
type UpdateItemRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	MealType    *string `json:"meal_type" validate:"omitempty,oneof=breakfast lunch dinner"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

type AddPlanItemRequest struct {
	ItemID string `json:"item_id"`
}

// SavePlanRequest maps meal type to the ordered catalog item ids.
type SavePlanRequest struct {
	Meals map[string][]string `json:"meals"`
}

type SubmitVoteRequest struct {
	MealType string `json:"meal_type"`
	ItemID   string `json:"item_id"`
}

type SettingsRequest struct {
	VotingStartTime string `json:"voting_start_time"`
	VotingEndTime   string `json:"voting_end_time"`
	MenuCycleDays   int    `json:"menu_cycle_days"`
}

type ComplaintRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	RoomNumber int    `json:"room_number" validate:"min=1,max=200"`
	Category   string `json:"category" validate:"required,oneof=food hygiene maintenance other"`
	Text       string `json:"text" validate:"required,max=2000"`
	Urgency    string `json:"urgency" validate:"required,oneof=low medium high"`
}

type UpdateComplaintRequest struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

type ResolveAllRequest struct {
	Response string `json:"response"`
}

// Response types

type TokenResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Student   *Student  `json:"student,omitempty"`
}

type SubmitVoteResponse struct {
	Vote    Vote   `json:"vote"`
	Message string `json:"message"`
}

type MenuTodayResponse struct {
	Date   string                 `json:"date"`
	Window WindowResponse         `json:"window"`
	Meals  map[string][]PlanEntry `json:"meals"`
	Votes  map[string]string      `json:"votes"`
}

type WindowResponse struct {
	Open      bool   `json:"open"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Hours     int    `json:"hours"`
	Minutes   int    `json:"minutes"`
	Seconds   int    `json:"seconds"`
	ClosesIn  string `json:"closes_in,omitempty"`
	Today     string `json:"today"`
	CycleDays int    `json:"menu_cycle_days"`
}

type RecountResponse struct {
	Items int `json:"items"`
}

// DashboardStats is the warden's overview of today.
type DashboardStats struct {
	Date              string  `json:"date"`
	TotalStudents     int     `json:"total_students"`
	TodayVotes        int     `json:"today_votes"`
	MenuItems         int     `json:"menu_items"`
	ParticipationRate float64 `json:"participation_rate"`
}

type ResolveAllResponse struct {
	Resolved int64 `json:"resolved"`
}

// Domain types

type MenuItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MealType    string    `json:"meal_type"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	VoteCount   int       `json:"vote_count"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlanEntry is a snapshot of a catalog item taken when it was planned.
type PlanEntry struct {
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
}

type DailyPlan struct {
	Date      string                 `json:"date"`
	Meals     map[string][]PlanEntry `json:"meals"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type Vote struct {
	StudentID string    `json:"student_id"`
	Date      string    `json:"date"`
	MealType  string    `json:"meal_type"`
	ItemID    string    `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Settings struct {
	VotingStartTime string    `json:"voting_start_time"`
	VotingEndTime   string    `json:"voting_end_time"`
	MenuCycleDays   int       `json:"menu_cycle_days"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Student struct {
	StudentID   string     `json:"student_id"`
	Name        string     `json:"name"`
	TotalVotes  int        `json:"total_votes"`
	LastVoteAt  *time.Time `json:"last_vote_at,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Complaint struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RoomNumber int       `json:"room_number"`
	Category   string    `json:"category"`
	Text       string    `json:"text"`
	Urgency    string    `json:"urgency"`
	Status     string    `json:"status"`
	Response   *string   `json:"response,omitempty"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ComplaintStats struct {
	Today            int `json:"today"`
	Pending          int `json:"pending"`
	ResolvedThisWeek int `json:"resolved_this_week"`
	ThisWeek         int `json:"this_week"`
}

// Result types

type ItemTally struct {
	ItemID  string  `json:"item_id"`
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type MealResult struct {
	MealType string      `json:"meal_type"`
	Total    int         `json:"total"`
	Tallies  []ItemTally `json:"tallies"`
	Winner   *ItemTally  `json:"winner,omitempty"`
}

type DaySummary struct {
	Date   string       `json:"date"`
	Closed bool         `json:"closed"`
	Meals  []MealResult `json:"meals"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}
