package admission

// Course is an offered programme with its seat count
type Course struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Duration string `json:"duration"`
	Seats    int    `json:"seats"`
	Filled   int    `json:"filled"`
}

// Occupancy returns the filled share of seats in [0, 1]
func (c Course) Occupancy() float64 {
	if c.Seats <= 0 {
		return 0
	}
	r := float64(c.Filled) / float64(c.Seats)
	if r > 1 {
		return 1
	}
	return r
}

type Eligibility struct {
	Program       string `json:"program"`
	MinPercentage int    `json:"minPercentage"`
	Subjects      string `json:"subjects"`
	EntranceExam  string `json:"entranceExam"`
}

// Fee is the yearly cost breakdown in dollars
type Fee struct {
	Program string `json:"program"`
	Tuition int    `json:"tuition"`
	Hostel  int    `json:"hostel"`
	Other   int    `json:"other"`
	Total   int    `json:"total"`
}

type DeadlineStatus string

const (
	DeadlineCompleted DeadlineStatus = "completed"
	DeadlineUpcoming  DeadlineStatus = "upcoming"
)

type Deadline struct {
	Event  string         `json:"event"`
	Date   string         `json:"date"`
	Status DeadlineStatus `json:"status"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Data is everything the admin dashboard shows
type Data struct {
	Stats       []Stat        `json:"stats"`
	Courses     []Course      `json:"courses"`
	Eligibility []Eligibility `json:"eligibility"`
	Fees        []Fee         `json:"fees"`
	Deadlines   []Deadline    `json:"deadlines"`
	FAQs        []FAQ         `json:"faqs"`
}

var dashboard = Data{
	Stats: []Stat{
		{Label: "Total Courses", Value: "45+"},
		{Label: "Applications", Value: "2,450"},
		{Label: "Avg. Fee/Year", Value: "$10,000"},
		{Label: "Days Left", Value: "107"},
	},
	Courses: []Course{
		{ID: 1, Name: "Computer Science & Engineering", Duration: "4 years", Seats: 120, Filled: 98},
		{ID: 2, Name: "Electrical & Electronics Engineering", Duration: "4 years", Seats: 80, Filled: 65},
		{ID: 3, Name: "Mechanical Engineering", Duration: "4 years", Seats: 60, Filled: 48},
		{ID: 4, Name: "Business Administration (BBA)", Duration: "3 years", Seats: 100, Filled: 82},
		{ID: 5, Name: "Bachelor of Commerce", Duration: "3 years", Seats: 150, Filled: 120},
		{ID: 6, Name: "Bachelor of Science (Physics)", Duration: "3 years", Seats: 50, Filled: 35},
	},
	Eligibility: []Eligibility{
		{Program: "Engineering", MinPercentage: 60, Subjects: "PCM (Physics, Chemistry, Mathematics)", EntranceExam: "JEE Main / State CET"},
		{Program: "Business", MinPercentage: 55, Subjects: "Any stream", EntranceExam: "College Aptitude Test"},
		{Program: "Science", MinPercentage: 55, Subjects: "Science stream preferred", EntranceExam: "College Aptitude Test"},
		{Program: "Arts", MinPercentage: 50, Subjects: "Any stream", EntranceExam: "Not Required"},
	},
	Fees: []Fee{
		{Program: "Engineering", Tuition: 12000, Hostel: 3000, Other: 1500, Total: 16500},
		{Program: "Business", Tuition: 10000, Hostel: 3000, Other: 1200, Total: 14200},
		{Program: "Science", Tuition: 8000, Hostel: 3000, Other: 1000, Total: 12000},
		{Program: "Arts", Tuition: 6000, Hostel: 3000, Other: 800, Total: 9800},
	},
	Deadlines: []Deadline{
		{Event: "Application Opens", Date: "Jan 15, 2025", Status: DeadlineCompleted},
		{Event: "Early Bird Deadline", Date: "Feb 28, 2025", Status: DeadlineCompleted},
		{Event: "Regular Application Deadline", Date: "Mar 30, 2025", Status: DeadlineUpcoming},
		{Event: "Late Application (with fee)", Date: "Apr 05, 2025", Status: DeadlineUpcoming},
		{Event: "Entrance Examination", Date: "Apr 15, 2025", Status: DeadlineUpcoming},
		{Event: "Results Announcement", Date: "Apr 25, 2025", Status: DeadlineUpcoming},
		{Event: "Counseling & Seat Allotment", Date: "May 01-15, 2025", Status: DeadlineUpcoming},
		{Event: "Classes Begin", Date: "Jul 01, 2025", Status: DeadlineUpcoming},
	},
	FAQs: []FAQ{
		{Question: "Can I apply to multiple programs?", Answer: "Yes, you can apply to up to 3 programs with a single application fee."},
		{Question: "Is there a hostel facility for outstation students?", Answer: "Yes, separate hostels for boys and girls with all modern amenities."},
		{Question: "What scholarships are available?", Answer: "Merit scholarships (up to 50%), sports quota, and need-based financial aid."},
		{Question: "Can I transfer from another college?", Answer: "Lateral entry is available for 2nd year with valid transcripts and NOC."},
		{Question: "Is there placement assistance?", Answer: "Yes, 100% placement assistance with 200+ recruiting companies visiting campus."},
	},
}

// Dashboard returns a copy of the admission data
func Dashboard() Data {
	return Data{
		Stats:       append([]Stat(nil), dashboard.Stats...),
		Courses:     append([]Course(nil), dashboard.Courses...),
		Eligibility: append([]Eligibility(nil), dashboard.Eligibility...),
		Fees:        append([]Fee(nil), dashboard.Fees...),
		Deadlines:   append([]Deadline(nil), dashboard.Deadlines...),
		FAQs:        append([]FAQ(nil), dashboard.FAQs...),
	}
}

var suggestedQuestions = []string{
	"What are the admission requirements?",
	"Tell me about available courses",
	"What are the tuition fees?",
	"When are the application deadlines?",
	"Is hostel accommodation available?",
}

// SuggestedQuestions returns the starter questions offered in an empty chat
func SuggestedQuestions() []string {
	return append([]string(nil), suggestedQuestions...)
}
