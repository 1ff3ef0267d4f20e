package domain

// Bug ticket priorities accepted by the report form.
var ValidPriorities = map[string]bool{
	"P0": true,
	"P1": true,
	"P2": true,
	"P3": true,
}

// BugTicket is a single bug-report submission. Tickets are write-once; there
// is no update or read path.
type BugTicket struct {
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Prio  string `json:"prio"`
}
