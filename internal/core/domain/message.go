package domain

// Message is an outbound email handed to a transport adapter. The
// transport either delivers the whole message or fails; there is no
// partial success.
type Message struct {
	// To is the recipient address.
	To string

	// ToName is the recipient display name.
	ToName string

	// Subject is the subject line.
	Subject string

	// HTMLBody is the HTML message body.
	HTMLBody string

	// Attachments lists file paths attached to the message.
	Attachments []string
}

// Deliverable is the payload handed to a renderer adapter to produce
// the personalized document for a completed order. Rendering is
// deterministic for identical payloads except for an embedded
// timestamp.
type Deliverable struct {
	// Title is the document title, usually the product name.
	Title string

	// CustomerName personalizes the document.
	CustomerName string

	// Rows is the knowledge-store content selected for this document.
	Rows []ExportRow

	// Price is the purchase price printed on the document.
	Price float64

	// OrderID ties the document to its order.
	OrderID string
}
