package children

// MedicalCondition is the canonical structured shape of one condition. The
// backend only ever receives or returns this shape; raw form input gets
// normalized into it by the transformer.
type MedicalCondition struct {
	Condition        string `json:"condition"`
	DiagnosedDate    string `json:"diagnosed_date"`
	CurrentTreatment string `json:"current_treatment"`
	Notes            string `json:"notes"`
}

// ChildTransport is the canonical child record after envelope unwrapping
// and photo overlay. Field names follow the backend wire format.
type ChildTransport struct {
	Id      string `json:"id,omitempty"`
	ChildId string `json:"child_id,omitempty"`

	FirstName  string `json:"first_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`

	DateOfBirth   string `json:"date_of_birth,omitempty"`
	AdmissionDate string `json:"admission_date,omitempty"`

	Gender        string `json:"gender,omitempty"`
	CurrentStatus string `json:"current_status,omitempty"`
	HealthStatus  string `json:"health_status,omitempty"`

	Allergies         []string           `json:"allergies,omitempty"`
	MedicalConditions []MedicalCondition `json:"medical_conditions,omitempty"`

	// PhotoUrl is the overlay result: local override first, server value as
	// the fallback, absent otherwise.
	PhotoUrl string `json:"photo_url,omitempty"`

	Lga           string `json:"lga,omitempty"`
	SchoolName    string `json:"school_name,omitempty"`
	Ambition      string `json:"ambition,omitempty"`
	GuardianName  string `json:"guardian_name,omitempty"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
	GuardianEmail string `json:"guardian_email,omitempty"`
	CaseNotes     string `json:"case_notes,omitempty"`
}

// ChildList is the normalized result of every list shaped call, whatever
// envelope dialect the backend answered with.
type ChildList struct {
	Items []ChildTransport `json:"items"`
	Total int              `json:"total"`
}

// ChildStats mirrors the dashboard statistics endpoint.
type ChildStats struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	ByGender       map[string]int `json:"by_gender"`
	ByHealthStatus map[string]int `json:"by_health_status"`
}

// Closed classification sets, validated on the write path.
var (
	Genders         = []string{"Male", "Female"}
	CurrentStatuses = []string{"Active", "Exited", "Transferred", "Adopted", "Inactive"}
	HealthStatuses  = []string{"Excellent", "Good", "Fair", "Poor"}
)
