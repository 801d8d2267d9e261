package llm

import (
	"fmt"
	"strings"
)

const supportivePersona = "You are an anxiety specialist AI therapist on the Endxiety platform. Your purpose is to provide supportive, evidence-based responses to users who share their anxiety experiences."

const supportiveGuidelines = `Response guidelines:
- Use evidence-based therapeutic techniques (CBT, ACT, mindfulness)
- Provide specific, practical anxiety management strategies
- Be compassionate but professionally therapeutic in tone
- Include a mix of validation, insight, and actionable suggestions
- Include one specific technique or exercise when appropriate
- Keep responses concise (3-4 sentences) but substantive
- Focus specifically on anxiety management
- End with a gentle, open question when appropriate

Your response should function as a brief therapeutic intervention for anxiety, not just general emotional support.`

const chatGuidelines = `Core guidelines:
- Respond as a professional therapist specializing in anxiety treatment
- Use evidence-based therapeutic techniques (CBT, mindfulness, ACT)
- Provide personalized coping strategies for anxiety management
- Offer specific, actionable advice rather than general platitudes
- Validate emotions while suggesting constructive perspectives
- Be conversational, compassionate, and authentic
- Ask thoughtful questions to promote self-awareness
- Include occasional breathing or grounding exercises when appropriate
- Keep responses concise (3-4 sentences) and focused on anxiety management

Remember: you are providing therapeutic support for anxiety specifically, not general mental health care.`

const emotionAnalysisInstruction = `You are an emotional intelligence expert. Analyze the text and identify the primary emotion, its intensity (1-10), and overall sentiment (positive, negative, or neutral). Respond with JSON in this format: {"emotion": string, "intensity": number, "sentiment": "positive" | "negative" | "neutral"}`

const wellbeingInstruction = `You are an emotional wellbeing AI expert. Based on the user's mood history, generate personalized insights and wellbeing tips. Include 2-3 insights about patterns or trends, and exactly 3 actionable wellbeing tips with categories (Mindfulness, Physical, Social, Creative, etc). Respond with JSON in this format: {"insights": string[], "tips": [{"category": string, "title": string, "content": string, "icon": string (fontawesome icon class name like 'fas fa-brain')}]}`

const genericSupportiveReply = "I'm here to help you manage your anxiety."

// buildSupportivePrompt layers the persona, the optional emotion analysis
// with its sentiment-conditioned directive, the user's self-reported mood,
// and the fixed response guidelines.
func buildSupportivePrompt(analysis *EmotionAnalysis, mood string) string {
	var b strings.Builder
	b.WriteString(supportivePersona)

	if analysis != nil {
		fmt.Fprintf(&b, "\n\nContent analysis: the user is expressing %s with intensity %d/10. Overall sentiment: %s.", analysis.Emotion, analysis.Intensity, analysis.Sentiment)
		b.WriteString(sentimentDirective(analysis))
	}

	if mood = strings.TrimSpace(mood); mood != "" {
		fmt.Fprintf(&b, "\n\nThe user has explicitly selected their mood as: %s.", mood)
	}

	b.WriteString("\n\n")
	b.WriteString(supportiveGuidelines)
	return b.String()
}

// buildChatPrompt is the conversational variant: it names the user and
// reports the analysis of their latest message before the chat guidelines.
func buildChatPrompt(analysis *EmotionAnalysis, displayName string) string {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "the user"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are Endxiety's AI companion, an empathetic assistant focused on anxiety support. Your purpose is to provide personalized therapeutic responses to %s and address them directly.", name)

	if analysis != nil {
		fmt.Fprintf(&b, "\n\nI've detected that %s is currently feeling %s with an intensity of %d/10, and the overall sentiment is %s.", name, analysis.Emotion, analysis.Intensity, analysis.Sentiment)
		b.WriteString(sentimentDirective(analysis))
	}

	b.WriteString("\n\n")
	b.WriteString(chatGuidelines)
	return b.String()
}

// sentimentDirective maps the sentiment/intensity combination to a steering
// sentence. High-intensity negative emotion asks for stabilization first.
func sentimentDirective(analysis *EmotionAnalysis) string {
	switch {
	case analysis.Sentiment == SentimentNegative && analysis.Intensity > 7:
		return "\nThis is a high-intensity negative emotion. Prioritize validation, grounding exercises, and stabilization before anything else."
	case analysis.Sentiment == SentimentNegative:
		return fmt.Sprintf("\nFocus on validation, reframing, and practical coping strategies for %s-related anxiety.", analysis.Emotion)
	case analysis.Sentiment == SentimentPositive:
		return "\nReinforce this positive emotional state while still addressing any anxiety-related concerns."
	default:
		return ""
	}
}

// supportiveFallbacks is the canned pool used when post-response generation
// fails outright. One entry is picked uniformly at random per call.
var supportiveFallbacks = []string{
	"I notice you might be experiencing anxiety. Remember that these feelings are temporary, and there are effective techniques to manage them. Try a quick 4-7-8 breathing exercise: inhale for 4 counts, hold for 7, exhale for 8.",
	"Anxiety can feel overwhelming, but you're taking an important step by expressing your feelings. Consider trying the 5-4-3-2-1 grounding technique: identify 5 things you can see, 4 you can touch, 3 you can hear, 2 you can smell, and 1 you can taste.",
	"It sounds like you're going through a challenging time with anxiety. Remember that your thoughts aren't facts - they're just thoughts. Try gently questioning automatic negative thoughts by asking what evidence supports them, and what you would tell a friend feeling this way.",
	"Managing anxiety is difficult, but you're not alone in this journey. Small steps like deep breathing, gentle movement, or talking with someone you trust can help reduce immediate anxiety. What's one small action you could take right now to support yourself?",
}

// chatFallbacks is the chat-specific canned pool.
var chatFallbacks = []string{
	"I'm here to support you with your anxiety. When you're ready to continue, I can suggest some practical coping strategies.",
	"Managing anxiety is challenging, but you're taking important steps by reaching out. What specific situation is triggering your anxiety right now?",
	"I notice you might be experiencing some anxiety. Remember that deep breathing can help - try inhaling for 4 counts, holding for a moment, and exhaling for 6 counts.",
	"It sounds like you're going through a difficult time. Would you like to practice a quick grounding technique together to help manage these feelings?",
}

// fallbackWellbeingReport is returned whole whenever the structured tips
// call fails or its payload does not validate.
func fallbackWellbeingReport() WellbeingReport {
	return WellbeingReport{
		Insights: []string{
			"You may benefit from establishing a regular self-care routine.",
			"Consider tracking specific triggers that affect your mood.",
		},
		Tips: []WellbeingTip{
			{
				Category: "Mindfulness",
				Title:    "5-Minute Breathing",
				Content:  "Take 5 minutes to focus on your breath, inhaling for 4 counts and exhaling for 6.",
				Icon:     "fas fa-brain",
			},
			{
				Category: "Physical",
				Title:    "Movement Break",
				Content:  "Take short walking breaks throughout your day to refresh your mind and body.",
				Icon:     "fas fa-walking",
			},
			{
				Category: "Creative",
				Title:    "Journal Prompt",
				Content:  "Write about three positive moments from your day, no matter how small.",
				Icon:     "fas fa-book",
			},
		},
	}
}
