package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kataras/iris/v12"
)

const (
	bookingAPIPath   = "/bookHotelRoom"
	inventoryAPIPath = "/getRoomInventory"
)

// agentEvent is the action-group invocation an agent runtime posts for each
// tool call.
type agentEvent struct {
	MessageVersion          string          `json:"messageVersion"`
	ActionGroup             string          `json:"actionGroup"`
	APIPath                 string          `json:"apiPath"`
	HTTPMethod              string          `json:"httpMethod"`
	Parameters              json.RawMessage `json:"parameters"`
	SessionAttributes       map[string]any  `json:"sessionAttributes"`
	PromptSessionAttributes map[string]any  `json:"promptSessionAttributes"`
	RequestBody             struct {
		Content map[string]json.RawMessage `json:"content"`
	} `json:"requestBody"`
}

type agentResponse struct {
	MessageVersion          string         `json:"messageVersion"`
	Response                agentResult    `json:"response"`
	SessionAttributes       map[string]any `json:"sessionAttributes"`
	PromptSessionAttributes map[string]any `json:"promptSessionAttributes"`
}

type agentResult struct {
	ActionGroup    string                       `json:"actionGroup"`
	APIPath        string                       `json:"apiPath"`
	HTTPMethod     string                       `json:"httpMethod"`
	HTTPStatusCode int                          `json:"httpStatusCode"`
	ResponseBody   map[string]map[string]string `json:"responseBody"`
}

// AgentAction answers action-group invocations. The transport status is
// always 200; the outcome travels in response.httpStatusCode.
func AgentAction(h *Handler) iris.Handler {
	return func(ctx iris.Context) {
		var event agentEvent
		if err := ctx.ReadJSON(&event); err != nil {
			ctx.StatusCode(http.StatusBadRequest)
			ctx.JSON(iris.Map{"error": "Invalid agent event"})
			return
		}

		var (
			status  int
			payload any
		)
		switch {
		case event.APIPath == bookingAPIPath:
			req, err := decodeBookingRequest(event.RequestBody.Content["application/json"])
			if err != nil {
				status, payload = http.StatusBadRequest, iris.Map{"error": "Invalid request payload"}
				break
			}
			status, payload = h.book(ctx.Request().Context(), req)
		case strings.HasPrefix(event.APIPath, inventoryAPIPath):
			status, payload = h.inventory(ctx.Request().Context(), event.date())
		default:
			status, payload = http.StatusNotFound, iris.Map{"error": "unknown apiPath " + event.APIPath}
		}

		ctx.JSON(event.respond(status, payload))
	}
}

// date reads the date parameter from the map form
// {"path": {"date": ...}, "query": {...}} or the list form
// [{"name": "date", "value": ...}], falling back to a concrete apiPath.
func (e *agentEvent) date() string {
	var byLocation map[string]map[string]string
	if err := json.Unmarshal(e.Parameters, &byLocation); err == nil {
		if d := byLocation["path"]["date"]; d != "" {
			return d
		}
		if d := byLocation["query"]["date"]; d != "" {
			return d
		}
	}

	var list []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(e.Parameters, &list); err == nil && len(list) > 0 {
		for _, p := range list {
			if p.Name == "date" {
				return p.Value
			}
		}
		return list[0].Value
	}

	if rest := strings.TrimPrefix(e.APIPath, inventoryAPIPath+"/"); rest != e.APIPath && !strings.HasPrefix(rest, "{") {
		return rest
	}
	return ""
}

func (e *agentEvent) respond(status int, payload any) agentResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"could not encode response"}`)
	}

	res := agentResult{
		ActionGroup:    e.ActionGroup,
		APIPath:        e.APIPath,
		HTTPMethod:     e.HTTPMethod,
		HTTPStatusCode: status,
		ResponseBody:   map[string]map[string]string{"application/json": {"body": string(body)}},
	}
	group, method := "Hotel Booking API", http.MethodPost
	if strings.HasPrefix(e.APIPath, inventoryAPIPath) {
		group, method = "Hotel Room Inventory API", http.MethodGet
	}
	if res.ActionGroup == "" {
		res.ActionGroup = group
	}
	if res.HTTPMethod == "" {
		res.HTTPMethod = method
	}

	session := e.SessionAttributes
	if session == nil {
		session = map[string]any{}
	}
	prompt := e.PromptSessionAttributes
	if prompt == nil {
		prompt = map[string]any{}
	}
	return agentResponse{
		MessageVersion:          "1.0",
		Response:                res,
		SessionAttributes:       session,
		PromptSessionAttributes: prompt,
	}
}
