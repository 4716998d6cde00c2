package domain

// RequestState a step of the per-request state machine:
// Received → Acquired → Classified → (Rejected | Captioned) → RecipeRequested → Completed,
// with Failed reachable from any non-terminal state.
type RequestState int

const (
	StateReceived = RequestState(iota)
	StateAcquired
	StateClassified
	StateRejected
	StateCaptioned
	StateRecipeRequested
	StateCompleted
	StateFailed
)

func (s RequestState) String() string {
	switch s {
	case StateReceived:
		return "Received"
	case StateAcquired:
		return "Acquired"
	case StateClassified:
		return "Classified"
	case StateRejected:
		return "Rejected"
	case StateCaptioned:
		return "Captioned"
	case StateRecipeRequested:
		return "RecipeRequested"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsTerminal says whether no further stage executes after this state.
func (s RequestState) IsTerminal() bool {
	return s == StateRejected || s == StateCompleted || s == StateFailed
}

// RequestOutcome the final disposition of one submission.
type RequestOutcome int

const (
	OutcomeUnknown = RequestOutcome(iota)
	OutcomeRejectedNotFood
	// OutcomeCompletedWithRecipe also covers a degraded recipe (see Recipe.Placeholder).
	OutcomeCompletedWithRecipe
	OutcomeFailedAcquisition
	// OutcomeFailedGeneration a model fault while classifying or captioning.
	OutcomeFailedGeneration
	// OutcomeFailedDelivery the chat transport couldn't deliver a notification.
	OutcomeFailedDelivery
)

func (o RequestOutcome) String() string {
	switch o {
	case OutcomeRejectedNotFood:
		return "Rejected-NotFood"
	case OutcomeCompletedWithRecipe:
		return "Completed-WithRecipe"
	case OutcomeFailedAcquisition:
		return "Failed-Acquisition"
	case OutcomeFailedGeneration:
		return "Failed-Generation"
	case OutcomeFailedDelivery:
		return "Failed-Delivery"
	default:
		return "Unknown"
	}
}

// outcomeForFailure maps the kind of a fatal error to the outcome reported for the request.
func outcomeForFailure(err error) RequestOutcome {
	kind, _ := KindOf(err)
	switch kind {
	case AcquisitionError:
		return OutcomeFailedAcquisition
	case NotificationError:
		return OutcomeFailedDelivery
	default:
		return OutcomeFailedGeneration
	}
}

// RequestResult everything that happened to one submission. Returned to the transport for logging; never
// persisted.
type RequestResult struct {
	ID        string
	Reference ImageReference
	State     RequestState
	Outcome   RequestOutcome
	// States every state the request went through, in order.
	States  []RequestState
	Verdict *ClassificationVerdict
	Caption Caption
	Recipe  *Recipe
	// Err the fault which moved the request to StateFailed, if any.
	Err error
}
