// Package domain contains core domain types for the chat engine.
package domain

// Intent is a discrete label describing what the user wants.
type Intent string

// Intent labels.
const (
	IntentStart            Intent = "START"
	IntentWelcome          Intent = "WELCOME"
	IntentFeedback         Intent = "FEEDBACK"
	IntentAbusive          Intent = "ABUSIVE"
	IntentScheduleInfo     Intent = "SCHEDULE_INFO"
	IntentScheduleSlotInfo Intent = "SCHEDULE_SLOT_INFO"
	IntentCancel           Intent = "CANCEL"
	IntentPayment          Intent = "PAYMENT"
	IntentDelivery         Intent = "DELIVERY"
	IntentCompanyInfo      Intent = "COMPANY_INFO"
	IntentProductInfo      Intent = "PRODUCT_INFO"
	IntentServiceInfo      Intent = "SERVICE_INFO"
	IntentOrderStatus      Intent = "ORDER_STATUS"
	IntentOpeningHours     Intent = "OPENING_HOURS"
	IntentLocation         Intent = "LOCATION"
	IntentPromotion        Intent = "PROMOTION"
	IntentComplaint        Intent = "COMPLAINT"
	IntentPraise           Intent = "PRAISE"
	IntentDoubt            Intent = "DOUBT"
	IntentTransferHuman    Intent = "TRANSFER_HUMAN"
	IntentCloseChat        Intent = "CLOSE_CHAT"
	IntentRestart          Intent = "RESTART"
	IntentGeneral          Intent = "GENERAL"
)

// Sentiment is the coarse emotional polarity of a message.
type Sentiment string

// Sentiment labels.
const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)
