package types

import "time"

// EmbeddingDimension is the fixed length of every stored vector.
const EmbeddingDimension = 384

// Scope represents the applicability tier of a stored solution
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeStack  Scope = "stack"
	ScopeRepo   Scope = "repo"
)

// Category classifies the kind of work a solution captures
type Category string

const (
	CategoryBugfix       Category = "bugfix"
	CategoryFeature      Category = "feature"
	CategoryRefactor     Category = "refactor"
	CategoryConfig       Category = "config"
	CategoryPattern      Category = "pattern"
	CategoryOptimization Category = "optimization"
)

// Outcome is the feedback signal reported after applying a solution
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// Solution is a stored remedy for a previously seen problem
type Solution struct {
	ID               string
	RepoID           *string // Required when Scope == ScopeRepo
	Problem          string
	Embedding        []float32 // Always EmbeddingDimension long
	Solution         string
	Scope            Scope
	Tags             []string
	Category         *Category
	Complexity       int // 1..10
	Score            float64
	Uses             int
	Successes        int
	PartialSuccesses int
	Failures         int
	Supersedes       *string // Must reference an existing solution id
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ValidateScope checks if the scope value is valid
func (s Scope) ValidateScope() error {
	switch s {
	case ScopeGlobal, ScopeStack, ScopeRepo:
		return nil
	default:
		return NewValidationError("scope", string(s), "must be global, stack, or repo")
	}
}

// ValidateCategory checks if the category value is valid
func (c Category) ValidateCategory() error {
	switch c {
	case CategoryBugfix, CategoryFeature, CategoryRefactor, CategoryConfig, CategoryPattern, CategoryOptimization:
		return nil
	default:
		return NewValidationError("category", string(c), "unknown category")
	}
}

// ValidateOutcome checks if the outcome value is valid
func (o Outcome) ValidateOutcome() error {
	switch o {
	case OutcomeSuccess, OutcomePartial, OutcomeFailure:
		return nil
	default:
		return NewValidationError("outcome", string(o), "must be success, partial, or failure")
	}
}

// Validate performs comprehensive validation of the solution
func (s *Solution) Validate() error {
	if s.Problem == "" {
		return NewValidationError("problem", "", "problem text is required")
	}
	if s.Solution == "" {
		return NewValidationError("solution", "", "solution text is required")
	}
	if err := s.Scope.ValidateScope(); err != nil {
		return err
	}
	if s.Scope == ScopeRepo && (s.RepoID == nil || *s.RepoID == "") {
		return NewValidationError("repo_id", nil, "required when scope is repo")
	}
	if s.Category != nil {
		if err := s.Category.ValidateCategory(); err != nil {
			return err
		}
	}
	if s.Complexity < 1 || s.Complexity > 10 {
		return NewValidationError("complexity", s.Complexity, "must be between 1 and 10")
	}
	if s.Score < 0 || s.Score > 1 {
		return NewValidationError("score", s.Score, "must be between 0 and 1")
	}
	if len(s.Embedding) != 0 && len(s.Embedding) != EmbeddingDimension {
		return NewValidationError("embedding", len(s.Embedding), "wrong vector length")
	}
	return nil
}

// Failure is a stored diagnosis for a recurring error
type Failure struct {
	ID          string
	Signature   string // Deterministic hash of the normalized error text
	ErrorType   string
	Message     string
	RootCause   string
	FixApplied  string
	Prevention  string
	Occurrences int
	Embedding   []float32
	CreatedAt   time.Time
}

// Repo is a fingerprint of a local repository's tech stack
type Repo struct {
	ID         string // Stable hash of the filesystem root path
	Path       string
	Languages  []string
	Frameworks []string
	Patterns   []string
	Embedding  []float32 // Fingerprint embedding over the joined descriptors
	UpdatedAt  time.Time
}

// WarningSeverity orders warnings by how strongly they should interrupt
type WarningSeverity string

const (
	SeverityInfo  WarningSeverity = "info"
	SeverityWarn  WarningSeverity = "warn"
	SeverityBlock WarningSeverity = "block"
)

// WarningType says what kind of target a warning matches
type WarningType string

const (
	WarningFile    WarningType = "file"
	WarningPackage WarningType = "package"
)

// Warning is a user-created caution attached to a path glob or package name
type Warning struct {
	ID        string
	Type      WarningType
	Target    string // Path/glob or package name
	Severity  WarningSeverity
	Reason    string
	RepoID    *string // nil = global
	CreatedAt time.Time
}

// Validate checks the warning fields before any write
func (w *Warning) Validate() error {
	switch w.Type {
	case WarningFile, WarningPackage:
	default:
		return NewValidationError("type", string(w.Type), "must be file or package")
	}
	switch w.Severity {
	case SeverityInfo, SeverityWarn, SeverityBlock:
	default:
		return NewValidationError("severity", string(w.Severity), "must be info, warn, or block")
	}
	if w.Target == "" {
		return NewValidationError("target", "", "target is required")
	}
	return nil
}
