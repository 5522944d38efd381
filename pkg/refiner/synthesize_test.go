package refiner

import "testing"

func TestSingularLabel(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"audit_logs", "audit log"},
		{"activities", "activity"},
		{"contracts", "contract"},
		{"status", "status"},
		{"address", "address"},
		{"order_status", "order status"},
		{"menus", "menu"},
		{"product_skus", "product sku"},
		{"project_specs", "project spec"},
		{"user_activities", "user activity"},
		{"person", "person"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			if got := SingularLabel(tt.table); got != tt.want {
				t.Errorf("SingularLabel(%q) = %q, want %q", tt.table, got, tt.want)
			}
		})
	}
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name      string
		attribute string
		label     string
		want      string
	}{
		{"id", "id", "audit log", "Unique identifier for the audit log."},
		{"id upper case", "ID", "audit log", "Unique identifier for the audit log."},
		{"name", "name", "audit log", "Name of the audit log."},
		{"title", "title", "project", "Title of the project."},
		{"description", "description", "project", "Description of the project."},
		{"notes", "notes", "contract", "Notes related to the contract."},
		{"status", "status", "contract", "Current status of the contract."},
		{"type", "type", "contract", "Type or classification of the contract."},
		{"created_at", "created_at", "audit log", "Date and time when the audit log was created."},
		{"createdAt", "createdAt", "audit log", "Date and time when the audit log was created."},
		{"updated_at", "updated_at", "audit log", "Date and time when the audit log was last updated."},
		{"updatedAt", "updatedAt", "audit log", "Date and time when the audit log was last updated."},
		{"snake foreign key", "project_id", "audit log", "Foreign key referencing the Project."},
		{"camel foreign key", "projectId", "audit log", "Foreign key referencing the Project."},
		{"multi word camel foreign key", "parentTaskId", "task", "Foreign key referencing the Parent Task."},
		{"multi word snake foreign key", "assigned_user_id", "task", "Foreign key referencing the Assigned user."},
		{"upper ID suffix", "userID", "task", "Foreign key referencing the User."},
		{"acronym foreign key", "parentHTTPId", "task", "Foreign key referencing the Parent HTTP."},
		{"fallback", "severity", "audit log", "Severity of the audit log."},
		{"fallback snake", "due_date", "task", "Due date of the task."},
		{"fallback camel", "dueDate", "task", "Due Date of the task."},
		{"surrounding whitespace", "  name ", "user", "Name of the user."},
		{"empty label", "name", "", "Name of the ."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Synthesize(tt.attribute, tt.label); got != tt.want {
				t.Errorf("Synthesize(%q, %q) = %q, want %q", tt.attribute, tt.label, got, tt.want)
			}
		})
	}
}

func TestSynthesize_RulePrecedence(t *testing.T) {
	// "id" ends in "id" too; the exact rule must win over the foreign key rule.
	if got := Synthesize("id", "user"); got != "Unique identifier for the user." {
		t.Errorf("expected exact id rule, got %q", got)
	}
	// "paid" is treated as a foreign key by the suffix convention.
	if got := Synthesize("paid", "invoice"); got != "Foreign key referencing the Pa." {
		t.Errorf("expected suffix rule, got %q", got)
	}
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"severity", "Severity"},
		{"due_date", "Due date"},
		{"dueDate", "Due Date"},
		{"HTTPStatus", "HTTPStatus"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Humanize(tt.in); got != tt.want {
			t.Errorf("Humanize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
