package domain

// Policy is loaded once at startup and never changes afterwards.
type Policy struct {
	Region string
	Queue  string
	Topic  string
	Delete bool
}
