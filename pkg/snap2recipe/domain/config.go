package domain

// A list of built-in config keys supported by the pipeline's core (settings of the model adapters and transports
// are declared next to them).

const (
	// ConfigKeyAgentName the bot's name, used by chat transports to tell whether a message is addressed to it
	ConfigKeyAgentName = "agentName"
	// ConfigKeyLogPath file path where to save the logs
	ConfigKeyLogPath = "logPath"
	// ConfigKeyFoodLabels the candidate text labels the classifier scores every image against (a YAML list)
	ConfigKeyFoodLabels = "foodLabels"
	// ConfigKeyFoodLabel which of the labels means "food"; must be one of ConfigKeyFoodLabels
	ConfigKeyFoodLabel = "foodLabel"
	// ConfigKeyFoodThreshold the normalized food score must be strictly greater than this value for the image
	// to be accepted as food
	ConfigKeyFoodThreshold = "foodThreshold"
	// ConfigKeyAcquireTimeout how long fetching and decoding the image may take, in milliseconds
	ConfigKeyAcquireTimeout = "acquireTimeout"
	// ConfigKeyClassifyTimeout how long the food classifier may take, in milliseconds
	ConfigKeyClassifyTimeout = "classifyTimeout"
	// ConfigKeyCaptionTimeout how long caption generation may take, in milliseconds
	ConfigKeyCaptionTimeout = "captionTimeout"
	// ConfigKeyRecipeTimeout how long the remote recipe generation may take, in milliseconds
	ConfigKeyRecipeTimeout = "recipeTimeout"
	// ConfigKeyNotifyTimeout how long sending a single notification to the user may take, in milliseconds
	ConfigKeyNotifyTimeout = "notifyTimeout"
	// ConfigKeyVideoTimeout how long looking up a cooking video for the final message may take, in milliseconds
	ConfigKeyVideoTimeout = "videoTimeout"
)
