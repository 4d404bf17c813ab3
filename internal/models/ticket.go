package models

// TicketFields is the exact, ordered field list requested from the model.
var TicketFields = []string{
	"airline",
	"flight_number",
	"passenger_name",
	"departure_airport",
	"arrival_airport",
	"departure_date",
	"departure_time",
	"arrival_date",
	"arrival_time",
	"seat_number",
	"booking_reference",
	"ticket_number",
	"fare_class",
	"baggage_allowance",
}

// SegmentsField holds the per-leg list for multi-segment itineraries.
const SegmentsField = "segments"

// Ticket is a typed view over a structured result. Unset fields are nil.
type Ticket struct {
	Airline          *string   `json:"airline"`
	FlightNumber     *string   `json:"flight_number"`
	PassengerName    *string   `json:"passenger_name"`
	DepartureAirport *string   `json:"departure_airport"`
	ArrivalAirport   *string   `json:"arrival_airport"`
	DepartureDate    *string   `json:"departure_date"`
	DepartureTime    *string   `json:"departure_time"`
	ArrivalDate      *string   `json:"arrival_date"`
	ArrivalTime      *string   `json:"arrival_time"`
	SeatNumber       *string   `json:"seat_number"`
	BookingReference *string   `json:"booking_reference"`
	TicketNumber     *string   `json:"ticket_number"`
	FareClass        *string   `json:"fare_class"`
	BaggageAllowance *string   `json:"baggage_allowance"`
	Segments         []Segment `json:"segments,omitempty"`
}

// Segment is one leg of a multi-segment itinerary.
type Segment struct {
	Airline          *string `json:"airline"`
	FlightNumber     *string `json:"flight_number"`
	DepartureAirport *string `json:"departure_airport"`
	ArrivalAirport   *string `json:"arrival_airport"`
	DepartureDate    *string `json:"departure_date"`
	DepartureTime    *string `json:"departure_time"`
	ArrivalDate      *string `json:"arrival_date"`
	ArrivalTime      *string `json:"arrival_time"`
	SeatNumber       *string `json:"seat_number"`
}
