package models

// SOPCreate is the payload for creating a SOP.
type SOPCreate struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Summary     *string   `json:"summary"`
	Difficulty  *int      `json:"difficulty"`
	Department  *string   `json:"department"`
	Status      SOPStatus `json:"status"`
	CategoryID  uint      `json:"categoryId" binding:"required"`
	CreatedByID *uint     `json:"createdById"`
	TagIDs      []uint    `json:"tagIds"`
}

// SOPPatch is a partial SOP update. Absent fields are left untouched;
// null clears summary, difficulty and department and is ignored elsewhere.
type SOPPatch struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	Summary     Optional[string]    `json:"summary"`
	Difficulty  Optional[int]       `json:"difficulty"`
	Department  Optional[string]    `json:"department"`
	Status      Optional[SOPStatus] `json:"status"`
	CategoryID  Optional[uint]      `json:"categoryId"`
	TagIDs      Optional[[]uint]    `json:"tagIds"`
}

// StepCreate is the payload for adding a step. StepNumber defaults to the
// next free position.
type StepCreate struct {
	StepNumber *int    `json:"stepNumber"`
	Content    string  `json:"content" binding:"required"`
	Attachment *string `json:"attachment"`
}

type StepPatch struct {
	StepNumber Optional[int]    `json:"stepNumber"`
	Content    Optional[string] `json:"content"`
	Attachment Optional[string] `json:"attachment"`
}

// ReorderRequest lists child ids in their new order.
type ReorderRequest struct {
	Order []uint `json:"order"`
}

type LearningPathCreate struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	CreatedByID *uint   `json:"createdById"`
	SOPIDs      []uint  `json:"sopIds"`
}

type LearningPathPatch struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
}

// PathItemCreate adds a SOP to a learning path, optionally at an explicit position.
type PathItemCreate struct {
	SOPID    uint `json:"sopId" binding:"required"`
	Position *int `json:"position"`
}

type CategoryCreate struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type CategoryPatch struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
}

type TagInput struct {
	Name string `json:"name" binding:"required"`
}

type UserCreate struct {
	Name            string   `json:"name" binding:"required"`
	Email           string   `json:"email" binding:"required,email"`
	Password        string   `json:"password" binding:"required"`
	ConfirmPassword *string  `json:"confirmPassword"`
	Role            UserRole `json:"role"`
}

// UserPatch updates a user; the password is re-hashed only when present.
type UserPatch struct {
	Name     Optional[string]   `json:"name"`
	Email    Optional[string]   `json:"email"`
	Role     Optional[UserRole] `json:"role"`
	Password Optional[string]   `json:"password"`
}

type ProgressInput struct {
	UserID uint           `json:"userId" binding:"required"`
	SOPID  uint           `json:"sopId" binding:"required"`
	Status ProgressStatus `json:"status"`
}
