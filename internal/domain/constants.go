package domain

// User roles
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

// Payment providers
const (
	ProviderCard  = "card"  // Stripe Checkout (redirect flow)
	ProviderLocal = "local" // Razorpay order (client-side widget flow)
)

// PaymentIntent statuses. Pending is the only non-terminal state; once an
// intent reaches Succeeded or Failed it never transitions again.
const (
	IntentPending   = "pending"
	IntentSucceeded = "succeeded"
	IntentFailed    = "failed"
)

// Course lifecycle
const (
	CourseDraft     = "DRAFT"
	CoursePublished = "PUBLISHED"
)
