package rbac

const (
	PermQuizView     = "quiz:view"
	PermQuizCreate   = "quiz:create"
	PermQuizEdit     = "quiz:edit"
	PermQuizImport   = "quiz:import"
	PermQuizExport   = "quiz:export"
	PermRosterImport = "roster:import"
	PermUsersUpsert  = "users:bulk_upsert"
	PermUsersList    = "users:list"

	PermChangePassword = "user:change_password"
	PermEventsRead     = "events:read"
)

// DefaultPolicy: authors own the question bank, students only read.
var DefaultPolicy = Policy{
	"student": {
		PermQuizView,
		PermChangePassword,
	},
	"teacher": {
		"quiz:*",
		PermRosterImport,
		PermUsersList,
		PermChangePassword,
	},
	"admin": {
		"*", // everything
	},
}
