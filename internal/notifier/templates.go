package notifier

import "fmt"

// Template kinds accepted in template_<kind>_<conversation> callbacks.
const (
	TemplateBusiness      = "business"
	TemplateCollaboration = "collab"
	TemplateAvailability  = "availability"
	TemplateTechnical     = "technical"
	TemplateGeneral       = "general"
)

// RenderTemplate produces the quick-reply text for a template kind,
// personalized with the visitor's name. Unknown kinds fall back to the
// general template.
func RenderTemplate(kind, visitorName string) string {
	switch kind {
	case TemplateBusiness:
		return fmt.Sprintf("Hi %s! Thanks for reaching out about working together. "+
			"I'd love to discuss your project in detail. Could you share more about what you're looking to build? "+
			"You can also email me directly at marcveslino000@gmail.com or schedule a call at your convenience.", visitorName)
	case TemplateCollaboration:
		return fmt.Sprintf("Hey %s! I'm always excited about collaboration opportunities. "+
			"Let's connect and explore how we can work together. "+
			"Feel free to reach out at marcveslino000@gmail.com or let me know your preferred way to chat.", visitorName)
	case TemplateAvailability:
		return fmt.Sprintf("Hi %s! I'm currently available for freelance projects and internship opportunities. "+
			"I'd be happy to discuss how I can help with your needs. What kind of project do you have in mind?", visitorName)
	case TemplateTechnical:
		return fmt.Sprintf("Thanks for the technical question, %s! I'd be happy to dive deeper into this. "+
			"Could you provide a bit more context about your use case? "+
			"That'll help me give you the most relevant information.", visitorName)
	default:
		return fmt.Sprintf("Hi %s! Thanks for your message. I'm Marc, and I'd be happy to help. "+
			"What specific information are you looking for?", visitorName)
	}
}
