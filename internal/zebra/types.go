package zebra

// Wire records of the Zebra REST API. Fields without omitempty are required
// in request bodies.

type Activity struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Project struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Activities  []Activity `json:"activities,omitempty"`
}

type Role struct {
	ID       int    `json:"id"`
	ParentID *int   `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	FullName string `json:"full_name,omitempty"`
	Type     string `json:"type,omitempty"`
	Status   string `json:"status,omitempty"`
}

type User struct {
	ID           int    `json:"id"`
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
	EmployeeType string `json:"employee_type,omitempty"`
	Roles        []Role `json:"roles,omitempty"`
}

// Timesheet is both the create/update payload and the stored record.
// Date is YYYY-MM-DD and UpdatedAt RFC 3339, both set by the server.
type Timesheet struct {
	ID                int     `json:"id,omitempty"`
	UserID            int     `json:"user_id,omitempty"`
	ProjectID         int     `json:"project_id"`
	ActivityID        int     `json:"activity_id"`
	RoleID            *int    `json:"role_id,omitempty"`
	IndividualAction  bool    `json:"individual_action,omitempty"`
	Description       string  `json:"description,omitempty"`
	ClientDescription string  `json:"client_description,omitempty"`
	Time              float64 `json:"time"`
	Date              string  `json:"date"`
	UpdatedAt         string  `json:"updated_at,omitempty"`
}

// TimesheetFilter restricts a timesheet listing to [StartDate, EndDate].
type TimesheetFilter struct {
	StartDate string
	EndDate   string
}

// Envelope shapes: lists come as {"data":{"list":[...]}}, records as {"data":{...}}.
type ListEnvelope[T any] struct {
	Data struct {
		List []T `json:"list"`
	} `json:"data"`
}

type ItemEnvelope[T any] struct {
	Data T `json:"data"`
}
