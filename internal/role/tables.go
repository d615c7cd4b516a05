package role

// MenuItem is one entry of the sidebar / mobile menu.
type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var defaultQuestions = []string{
	"What facilities does the hostel offer?",
	"How do I contact the hostel office?",
	"What are the hostel rules?",
}

// Admin and warden share one list; the table is the only place the rest of
// the code branches on role.
var adminQuestions = []string{
	"How many complaints are pending?",
	"Show room occupancy overview",
	"How do I allot a room to a student?",
	"How do I add a new staff member?",
}

var quickQuestions = map[Role][]string{
	Student: {
		"How do I raise a complaint?",
		"What is the mess menu today?",
		"How do I apply for leave?",
		"What are the hostel timings?",
	},
	Staff: {
		"How do I update a task status?",
		"Which complaints are assigned to me?",
		"How do I mark a task as resolved?",
		"Who do I report issues to?",
	},
	ResidentTutor: {
		"How do I approve leave requests?",
		"How do I view student complaints?",
		"How do I contact the warden?",
		"What are my duty hours?",
	},
	Warden: adminQuestions,
	Admin:  adminQuestions,
}

// QuickQuestions returns a copy of the ordered suggestions for r.
func QuickQuestions(r Role) []string {
	qs, ok := quickQuestions[r]
	if !ok {
		qs = defaultQuestions
	}
	return append([]string(nil), qs...)
}

var dashboards = map[Role]string{
	Student:       "/student/dashboard",
	Staff:         "/staff/dashboard",
	ResidentTutor: "/rt/dashboard",
	Warden:        "/admin/dashboard",
	Admin:         "/admin/dashboard",
}

func DashboardPath(r Role) string {
	if p, ok := dashboards[r]; ok {
		return p
	}
	return "/login"
}

var adminMenu = []MenuItem{
	{Label: "Dashboard", Path: "/admin/dashboard"},
	{Label: "Students", Path: "/admin/students"},
	{Label: "Staff", Path: "/admin/staff"},
	{Label: "Rooms", Path: "/admin/rooms"},
	{Label: "Complaints", Path: "/admin/complaints"},
	{Label: "Profile", Path: "/admin/profile"},
}

var menus = map[Role][]MenuItem{
	Student: {
		{Label: "Dashboard", Path: "/student/dashboard"},
		{Label: "My Room", Path: "/student/room"},
		{Label: "Complaints", Path: "/student/complaints"},
		{Label: "Leave", Path: "/student/leave"},
		{Label: "Profile", Path: "/student/profile"},
	},
	Staff: {
		{Label: "Dashboard", Path: "/staff/dashboard"},
		{Label: "Tasks", Path: "/staff/tasks"},
		{Label: "Profile", Path: "/staff/profile"},
	},
	ResidentTutor: {
		{Label: "Dashboard", Path: "/rt/dashboard"},
		{Label: "Leave Requests", Path: "/rt/leave"},
		{Label: "Complaints", Path: "/rt/complaints"},
		{Label: "Profile", Path: "/rt/profile"},
	},
	Warden: adminMenu,
	Admin:  adminMenu,
}

var guestMenu = []MenuItem{
	{Label: "Login", Path: "/login"},
}

func Menu(r Role) []MenuItem {
	items, ok := menus[r]
	if !ok {
		items = guestMenu
	}
	return append([]MenuItem(nil), items...)
}
