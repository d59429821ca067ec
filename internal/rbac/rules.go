package rbac

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

const (
	PermCourseWrite = "course:write"
	PermQuizAnswers = "quiz:answers"
)

// Default policy. Students need no extra permissions beyond authentication.
var RolePermissions = map[string][]string{
	RoleStudent: {},
	RoleInstructor: {
		"course:*",
		PermQuizAnswers,
	},
	RoleAdmin: {
		"*",
	},
}
