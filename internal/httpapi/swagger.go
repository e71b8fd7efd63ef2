package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const swaggerPage = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Rizz Academy API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({ url: '/docs/openapi.json', dom_id: '#swagger-ui' });
  </script>
</body>
</html>`

func (h *Handler) swaggerUI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerPage))
}

func (h *Handler) swaggerSpec(c *gin.Context) {
	c.JSON(http.StatusOK, openAPISpec(requestBaseURL(c.Request)))
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); forwarded != "" {
		scheme = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host := strings.TrimSpace(r.Host)
	if host == "" {
		host = "localhost:8080"
	}
	return scheme + "://" + host
}

type apiOperation struct {
	method      string
	path        string
	summary     string
	operationID string
	authed      bool
	request     string
	response    string
	errors      []string
}

var apiOperations = []apiOperation{
	{method: "get", path: "/api/", summary: "API banner", operationID: "root", response: "Message"},
	{method: "get", path: "/api/health", summary: "Health check", operationID: "health", response: "Health"},
	{method: "post", path: "/api/auth/session", summary: "Exchange an identity provider session id for a session cookie", operationID: "exchangeSession", request: "SessionExchangeRequest", response: "SessionExchangeResponse", errors: []string{"400", "401", "500"}},
	{method: "get", path: "/api/auth/me", summary: "Current user", operationID: "me", authed: true, response: "User", errors: []string{"401"}},
	{method: "post", path: "/api/auth/logout", summary: "Forget the session and clear the cookie", operationID: "logout", response: "Message"},
	{method: "get", path: "/api/quiz/questions", summary: "Archetype quiz questions", operationID: "quizQuestions", response: "QuestionList"},
	{method: "post", path: "/api/quiz/submit", summary: "Classify answers and store the result", operationID: "submitQuiz", authed: true, request: "QuizSubmission", response: "QuizResult", errors: []string{"400", "401"}},
	{method: "get", path: "/api/quiz/result", summary: "Stored quiz result, null when none", operationID: "quizResult", authed: true, response: "QuizResult", errors: []string{"401"}},
	{method: "get", path: "/api/user/progress", summary: "XP, level and streak", operationID: "progress", authed: true, response: "Progress", errors: []string{"401"}},
	{method: "post", path: "/api/user/progress/update", summary: "Record activity worth xp_earned XP", operationID: "updateProgress", authed: true, response: "ProgressUpdate", errors: []string{"400", "401"}},
	{method: "get", path: "/api/user/achievements", summary: "Achievement progress", operationID: "achievements", authed: true, response: "AchievementList", errors: []string{"401"}},
	{method: "get", path: "/api/foundation/entries", summary: "Latest journal entries, newest first", operationID: "journalEntries", authed: true, response: "JournalEntryList", errors: []string{"401"}},
	{method: "post", path: "/api/foundation/entries", summary: "Write a journal entry", operationID: "createJournalEntry", authed: true, request: "JournalEntryCreate", response: "JournalEntry", errors: []string{"400", "401"}},
	{method: "get", path: "/api/foundation/prompts", summary: "Journal prompts by type", operationID: "journalPrompts", response: "PromptMap"},
	{method: "get", path: "/api/combat/scenarios", summary: "Practice chat scenarios", operationID: "scenarios", response: "ScenarioList"},
	{method: "post", path: "/api/combat/chat", summary: "Send one practice chat message", operationID: "chat", authed: true, request: "ChatRequest", response: "ChatResponse", errors: []string{"400", "401", "429"}},
	{method: "get", path: "/api/combat/history/{session_id}", summary: "Messages of a chat session, oldest first", operationID: "chatHistory", authed: true, response: "ChatMessageList", errors: []string{"401"}},
	{method: "post", path: "/api/combat/new-session", summary: "Allocate a chat session id", operationID: "newChatSession", authed: true, response: "SessionID", errors: []string{"401"}},
}

var errorDescriptions = map[string]string{
	"400": "Invalid request",
	"401": "Not authenticated or session invalid",
	"429": "Rate limited",
	"500": "Server error",
}

func schemaRef(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

func jsonContent(schema string) map[string]any {
	return map[string]any{
		"application/json": map[string]any{"schema": schemaRef(schema)},
	}
}

func (op apiOperation) document() map[string]any {
	responses := map[string]any{
		"200": map[string]any{"description": "OK", "content": jsonContent(op.response)},
	}
	for _, code := range op.errors {
		responses[code] = map[string]any{"description": errorDescriptions[code], "content": jsonContent("Error")}
	}
	doc := map[string]any{
		"summary":     op.summary,
		"operationId": op.operationID,
		"responses":   responses,
	}
	if op.request != "" {
		doc["requestBody"] = map[string]any{"required": true, "content": jsonContent(op.request)}
	}
	if op.authed {
		doc["security"] = []map[string][]string{{"cookieAuth": {}}, {"bearerAuth": {}}}
	}
	switch {
	case strings.Contains(op.path, "{session_id}"):
		doc["parameters"] = []map[string]any{{"name": "session_id", "in": "path", "required": true, "schema": map[string]string{"type": "string"}}}
	case op.operationID == "updateProgress":
		doc["parameters"] = []map[string]any{{"name": "xp_earned", "in": "query", "schema": map[string]any{"type": "integer", "minimum": 0}}}
	}
	return doc
}

func object(props map[string]any, required ...string) map[string]any {
	out := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func listOf(key, item string) map[string]any {
	return object(map[string]any{key: map[string]any{"type": "array", "items": schemaRef(item)}})
}

var (
	str     = map[string]string{"type": "string"}
	integer = map[string]string{"type": "integer"}
	strList = map[string]any{"type": "array", "items": str}
	instant = map[string]string{"type": "string", "format": "date-time"}
)

func openAPISchemas() map[string]any {
	return map[string]any{
		"Error":   object(map[string]any{"error": str}, "error"),
		"Message": object(map[string]any{"message": str}),
		"Health":  object(map[string]any{"status": str}),
		"SessionExchangeRequest": object(map[string]any{"session_id": str}, "session_id"),
		"SessionExchangeResponse": object(map[string]any{
			"user_id": str, "email": str, "name": str, "picture": str, "session_token": str,
		}),
		"User": object(map[string]any{"user_id": str, "email": str, "name": str, "picture": str, "created_at": instant}),
		"QuestionList": listOf("questions", "Question"),
		"Question": object(map[string]any{
			"id":       integer,
			"question": str,
			"options":  map[string]any{"type": "array", "items": object(map[string]any{"value": str, "text": str})},
		}),
		"QuizSubmission": listOf("answers", "QuizAnswer"),
		"QuizAnswer":     object(map[string]any{"question_id": integer, "answer": str}, "question_id", "answer"),
		"QuizResult": object(map[string]any{
			"user_id": str, "archetype": str, "archetype_title": str, "archetype_description": str,
			"strengths": strList, "areas_to_improve": strList, "recommended_modules": strList, "timestamp": instant,
		}),
		"Progress": object(map[string]any{
			"user_id": str, "xp": integer, "level": integer, "streak_days": integer,
			"last_activity": map[string]any{"type": "string", "format": "date-time", "nullable": true},
			"completed_modules": strList, "achievements": strList,
		}),
		"ProgressUpdate":  object(map[string]any{"xp": integer, "level": integer, "streak_days": integer, "xp_earned": integer}),
		"AchievementList": listOf("achievements", "Achievement"),
		"Achievement": object(map[string]any{
			"id": str, "name": str, "description": str, "metric": str,
			"unlocked": map[string]string{"type": "boolean"}, "progress": integer, "target": integer,
		}),
		"JournalEntryList":   listOf("entries", "JournalEntry"),
		"JournalEntryCreate": object(map[string]any{"entry_type": str, "content": str, "mood": str}, "entry_type", "content"),
		"JournalEntry": object(map[string]any{
			"entry_id": str, "user_id": str, "entry_type": str, "content": str, "mood": str, "timestamp": instant,
		}),
		"PromptMap":    map[string]any{"type": "object", "additionalProperties": strList},
		"ScenarioList": listOf("scenarios", "Scenario"),
		"Scenario":     object(map[string]any{"id": str, "name": str, "description": str}),
		"ChatRequest":  object(map[string]any{"message": str, "scenario": str, "session_id": str}, "message", "scenario"),
		"ChatResponse": object(map[string]any{
			"response": str, "session_id": str,
			"feedback": map[string]any{"type": "string", "nullable": true},
		}),
		"ChatMessageList": listOf("messages", "ChatMessage"),
		"ChatMessage": object(map[string]any{
			"message_id": str, "user_id": str, "session_id": str, "role": str, "content": str, "scenario": str, "timestamp": instant,
		}),
		"SessionID": object(map[string]any{"session_id": str}),
	}
}

func openAPISpec(serverURL string) map[string]any {
	paths := make(map[string]any)
	for _, op := range apiOperations {
		item, _ := paths[op.path].(map[string]any)
		if item == nil {
			item = make(map[string]any)
			paths[op.path] = item
		}
		item[op.method] = op.document()
	}
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       "Rizz Academy API",
			"description": "Dating confidence coaching backend",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{{"url": serverURL}},
		"paths":   paths,
		"components": map[string]any{
			"schemas": openAPISchemas(),
			"securitySchemes": map[string]any{
				"cookieAuth": map[string]string{"type": "apiKey", "in": "cookie", "name": "session_token"},
				"bearerAuth": map[string]string{"type": "http", "scheme": "bearer"},
			},
		},
	}
}
