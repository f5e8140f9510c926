package api

// Wire types for the backend REST contract. The backend is an opaque
// collaborator; these shapes are the whole interface the engine
// expects from it.

type StoryDoc struct {
	ID              string    `json:"id,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	CoverImage      string    `json:"cover_image,omitempty"`
	IsPublished     bool      `json:"is_published"`
	AssignedClasses []string  `json:"assigned_classes,omitempty"`
	Pages           []PageDoc `json:"pages"`
}

type PageDoc struct {
	ID           string `json:"id"`
	Number       int    `json:"number"`
	Text         string `json:"text"`
	Notes        string `json:"notes,omitempty"`
	Duration     int    `json:"duration"`
	ImageURL     string `json:"image_url,omitempty"`
	NarrationURL string `json:"narration_url,omitempty"`
}

type QuizDoc struct {
	ID           string        `json:"id,omitempty"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	TimeLimit    int           `json:"time_limit"`
	PassingScore int           `json:"passing_score"`
	Questions    []QuestionDoc `json:"questions"`
}

type QuestionDoc struct {
	ID            string            `json:"id"`
	Number        int               `json:"number"`
	Text          string            `json:"text"`
	Type          string            `json:"type"`
	Points        int               `json:"points"`
	Options       map[string]string `json:"options,omitempty"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation,omitempty"`
}

type ProgressUpdate struct {
	StoryID     string `json:"story_id"`
	CurrentPage int    `json:"current_page"`
	IsCompleted bool   `json:"is_completed"`
}

type QuizSubmission struct {
	QuizID    string            `json:"quiz_id"`
	Answers   map[string]string `json:"answers"` // questionID -> answer
	TimeTaken int               `json:"time_taken"`
}

type QuizResult struct {
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
	Passed    bool    `json:"passed"`
	AttemptID string  `json:"attempt_id,omitempty"`
}

// Update is one dashboard polling record: a stat change, a recent
// activity entry, or a notification.
type Update struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"` // stat|activity|notification
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt int64  `json:"created_at"`
}
