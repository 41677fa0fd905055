package agent

import (
	"fmt"

	"github.com/maksymlunov/Strangers-2025/internal/llm"
)

// Prompt text for the model collaborators. Every path repeats the
// not-a-doctor framing so a single missing disclaimer cannot slip through.
const (
	adviceSystemPrompt = "You are a helpful assistant in a health-monitoring app. " +
		"The data can be incomplete, noisy, or low quality. " +
		"Regardless of data quality, you must always provide some brief, " +
		"practical, common-sense advice. " +
		"You are NOT a doctor and this is NOT medical advice."

	adviceUserTemplate = "You are being used in a health-monitoring app.\n\n" +
		"Here is the context as JSON. Use it to infer what might be going on and give a short, " +
		"simple explanation plus a few general tips.\n\n" +
		"```json\n%s\n```\n\n" +
		"Constraints:\n" +
		"- Always respond, even if data looks bad, weird, or incomplete.\n" +
		"- Make it clear in a brief way that your answer is not a diagnosis or professional medical advice.\n" +
		"- Keep your answer to 1-2 short paragraphs (around 120-180 words)."

	chatSystemPrompt = "You are a helpful assistant in a health-monitoring app. " +
		"You chat with the user about their symptoms. " +
		"Always give simple, practical advice. " +
		"You are NOT a doctor. This is NOT medical advice."

	chatUserTemplate = "Continue the conversation based on this JSON:\n\n%s\n\n" +
		"Your task:\n" +
		"- Respond to the latest user message.\n" +
		"- Keep tone warm and simple.\n" +
		"- Give brief, practical tips.\n" +
		"- Clearly say this is NOT medical advice.\n" +
		"- Reply only with raw assistant text."

	riskSystemPrompt = "You are an assistant in a health-monitoring app. " +
		"You are NOT a doctor and this is NOT medical advice or diagnosis. " +
		"Your job is only to generate rough, high-level risk tags for possible conditions, " +
		"based on symptoms, sensors, and chat history. " +
		"Your output will be displayed with a clear warning that it is not medical advice."

	riskUserTemplate = "You will receive JSON with the current complaint, recent chat and " +
		"sensor data from a health-monitoring app.\n\n" +
		"Your task:\n" +
		"- Infer up to 5 POSSIBLE conditions or problem categories (these are NOT diagnoses).\n" +
		"- For each, assign an integer risk score from 0 to 10 (0 = no apparent risk, 10 = very concerning). " +
		"Use 0-3 for low risk, 4-6 for moderate, 7-10 for high concern.\n" +
		"- Focus on broad, human-readable labels like 'migraine', 'anxiety-related symptoms', " +
		"'mild dehydration', 'cardiovascular issue', etc. Avoid very rare or hyper-specific diseases.\n" +
		"- If data is very unclear, include one item like 'Unclear cause' with a low risk (1-3).\n\n" +
		"FORMAT REQUIREMENTS (VERY IMPORTANT):\n" +
		"- Respond with ONLY a JSON array.\n" +
		"- Length must be between 1 and 5.\n" +
		"- Each element must be an object with EXACTLY these keys: \"disease\" (string) and \"risk\" (integer 0-10).\n" +
		"- Do NOT include any extra keys, comments, text, or explanations outside the JSON.\n\n" +
		"Here is the data as JSON:\n%s"

	riskCorrectiveNote = "Your previous reply could not be parsed. Respond again with ONLY the JSON array " +
		"described above: between 1 and 5 objects, each with exactly the keys \"disease\" and \"risk\"."

	summarySystemPrompt = "You are a helpful assistant in a health-monitoring app. " +
		"You summarize the patient's situation for a doctor and for the patient. " +
		"You are NOT a doctor and this is NOT medical advice. " +
		"You must include a brief sentence making it clear that this summary does not replace professional medical care."

	summaryUserTemplate = "You will receive JSON with the most relevant data about a person's symptoms, " +
		"connected devices, recent sensor readings, and their recent chat with an AI assistant.\n\n" +
		"Your task:\n" +
		"- Read the data and write ONE overall summary paragraph (or two short paragraphs) that a doctor could quickly scan.\n" +
		"- Briefly describe: the main complaint, how it evolved over time, any notable sensor patterns, " +
		"and anything important from the conversation.\n" +
		"- Use clear, simple language.\n" +
		"- Include exactly one short sentence that clearly says this is not a diagnosis or medical advice and cannot replace a healthcare professional.\n" +
		"- Aim for about 150-220 words.\n\n" +
		"Respond with plain text only (no JSON, no bullet points, no markdown).\n\n" +
		"Here is the data as JSON:\n%s"
)

// Fallback copy used when a model call fails after its retry.
const (
	adviceFallback = "We could not generate advice right now. Please rest, stay hydrated, and monitor " +
		"your symptoms. If they worsen or you feel unwell, contact a healthcare professional. " +
		"This is not medical advice."

	chatFallback = "The assistant is temporarily unavailable, so no reply could be generated for this " +
		"message. If your symptoms are severe or getting worse, please contact a healthcare " +
		"professional. This is not medical advice."
)

func adviceMessages(payload Payload) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: adviceSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(adviceUserTemplate, promptJSON(payload))},
	}
}

// chatPrompt wraps the assembled payload with the turn being answered.
type chatPrompt struct {
	Payload
	LatestUserMessage string `json:"latest_user_message"`
}

func chatMessages(payload Payload, latestUserMessage string) []llm.Message {
	wrapped := chatPrompt{Payload: payload, LatestUserMessage: latestUserMessage}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: chatSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(chatUserTemplate, promptJSON(wrapped))},
	}
}

func riskMessages(payload Payload, corrective bool) []llm.Message {
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: riskSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(riskUserTemplate, promptJSON(payload))},
	}
	if corrective {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: riskCorrectiveNote})
	}
	return msgs
}

// summaryPrompt widens the assembled payload with the journal history the
// report needs.
type summaryPrompt struct {
	Payload
	Devices        []string          `json:"devices"`
	RecentSymptoms []ComplaintDigest `json:"recent_symptoms_most_recent_first,omitempty"`
}

func summaryMessages(payload Payload, devices []string, history []ComplaintDigest) []llm.Message {
	wrapped := summaryPrompt{Payload: payload, Devices: devices, RecentSymptoms: history}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: summarySystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(summaryUserTemplate, promptJSON(wrapped))},
	}
}
