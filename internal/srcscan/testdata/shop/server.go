package shop

type (
	// Metrics records counters.
	Metrics interface {
		Inc(name string)
	}

	Logger struct{}
)

// Server is the application entry point.
//
//grapht:root
type Server struct {
	Logger *Logger `grapht:"inject,nullable"`
	name   string
}

//grapht:inject port @Port
func NewServer(store Store, cache Cache, port int) *Server {
	return &Server{}
}

//grapht:inject nullable
func (s *Server) SetMetrics(m Metrics) {}
