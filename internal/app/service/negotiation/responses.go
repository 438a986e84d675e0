package negotiation

// Scripted provider lines used when the AI collaborator is unavailable. The
// reply is picked by message length, which is deterministic but feels varied
// enough across a short chat.
var scriptedResponses = map[string][]string{
	"Netflix": {
		"Great! I can offer a 15% discount on your Premium plan.",
		"We have a special plan for loyal customers. Would you like to try it?",
		"Perfect! I'll process your discount. You'll see the change on your next billing cycle.",
	},
	"Spotify": {
		"I understand. For long-time customers I can offer Premium at a promotional price.",
		"How about a 20% reduction on your Spotify Premium plan?",
		"Deal! You'll receive a confirmation email shortly.",
	},
	"ChatGPT Plus": {
		"Thanks for your loyalty! I can offer you an exclusive discount.",
		"We have a special 25% promotion for customers like you.",
		"Approved! Your new price takes effect immediately.",
	},
	"Adobe Creative Cloud": {
		"Excellent! As a long-time customer you deserve a discount.",
		"I can offer an 18% discount on your annual plan.",
		"Perfect! I'll confirm that for you right away.",
	},
}

var genericResponses = []string{
	"I understand your situation. Let me check what I can do for you.",
	"Great! We have a few options available.",
	"Agreed! I'll process that for you.",
}

func scriptedReply(providerName, userMessage string) string {
	responses, ok := scriptedResponses[providerName]
	if !ok {
		responses = genericResponses
	}
	return responses[len(userMessage)%len(responses)]
}
