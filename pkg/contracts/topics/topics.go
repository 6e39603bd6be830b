package topics

const (
	// Predições
	PredictionCompleted = "prediction_completed"

	// DLQs
	PredictionCompletedDLQ = "prediction_completed_dlq"
)
