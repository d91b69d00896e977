package report

// Vendor column names as they appear in the header row of a daily
// subscription-event export.
const (
	AppAppleID                = "App Apple ID"
	AppName                   = "App Name"
	SubscriptionAppleID       = "Subscription Apple ID"
	SubscriptionGroupID       = "Subscription Group ID"
	SubscriptionName          = "Subscription Name"
	SubscriptionDuration      = "Subscription Duration"
	SubscriberID              = "Subscriber ID"
	SubscriberIDReset         = "Subscriber ID Reset"
	EventDate                 = "Event Date"
	IntroductoryPriceType     = "Introductory Price Type"
	IntroductoryPriceDuration = "Introductory Price Duration"
	Refund                    = "Refund"
	CustomerPrice             = "Customer Price"
	CustomerCurrency          = "Customer Currency"
	DeveloperProceeds         = "Developer Proceeds"
	ProceedsCurrency          = "Proceeds Currency"
	PurchaseDate              = "Purchase Date"
	Country                   = "Country"
	Device                    = "Device"
	MarketingOptInDuration    = "Marketing Opt-In Duration"
	PreservedPricing          = "Preserved Pricing"
	ProceedsReason            = "Proceeds Reason"
	Client                    = "Client"
)

// Columns lists every vendor column in export order.
var Columns = []string{
	AppAppleID,
	AppName,
	SubscriptionAppleID,
	SubscriptionGroupID,
	SubscriptionName,
	SubscriptionDuration,
	SubscriberID,
	SubscriberIDReset,
	EventDate,
	IntroductoryPriceType,
	IntroductoryPriceDuration,
	Refund,
	CustomerPrice,
	CustomerCurrency,
	DeveloperProceeds,
	ProceedsCurrency,
	PurchaseDate,
	Country,
	Device,
	MarketingOptInDuration,
	PreservedPricing,
	ProceedsReason,
	Client,
}
