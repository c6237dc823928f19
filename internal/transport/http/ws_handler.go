package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"flag-trivia-service/internal/app"
	"flag-trivia-service/internal/domain"
	"flag-trivia-service/internal/ranking"
)

const defaultQuestionCount = 10

// PlayHandler runs a flag quiz over a websocket: the server sends one
// question at a time, the client answers, and on completion the score
// is submitted and live daily leaderboard updates are streamed back.
type PlayHandler struct {
	game     *app.GameService
	rankings *ranking.Service
	upgrader websocket.Upgrader
}

func NewPlayHandler(game *app.GameService, rankings *ranking.Service) *PlayHandler {
	return &PlayHandler{
		game:     game,
		rankings: rankings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	OptionID string `json:"optionId"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type optionView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type questionView struct {
	Index   int          `json:"index"`
	Total   int          `json:"total"`
	Prompt  string       `json:"prompt"`
	Options []optionView `json:"options"`
}

type answerResultView struct {
	Correct   bool `json:"correct"`
	Completed bool `json:"completed"`
}

type completedView struct {
	Result  app.Result     `json:"result"`
	Receipt domain.Receipt `json:"receipt"`
}

// ServeWS upgrades the request and drives one quiz session until the
// last answer or until the client goes away.
func (h *PlayHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	nickname := q.Get("nickname")
	if nickname == "" {
		http.Error(w, "missing nickname", http.StatusBadRequest)
		return
	}
	count, err := strconv.Atoi(q.Get("count"))
	if err != nil || count < 1 {
		count = defaultQuestionCount
	}
	lang := q.Get("lang")
	if lang == "" {
		lang = "en"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.game.StartFlagQuiz(r.Context(), app.StartFlagQuizParams{
		Nickname:  nickname,
		Format:    domain.QuizFormat(q.Get("format")),
		Region:    q.Get("region"),
		Language:  lang,
		Questions: count,
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.game.Abandon(r.Context(), session.ID)

	updates, unsubscribe := h.rankings.SubscribeDaily(session.Region, session.Flag.Format())
	defer unsubscribe()

	send := make(chan outboundMessage, 16)
	done := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine; everything else queues onto send.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: "leaderboard", Payload: update}:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	send <- outboundMessage{Type: "question", Payload: h.currentQuestion(session)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Type != "answer" {
			send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
			continue
		}

		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
			continue
		}

		result, err := h.game.AnswerFlag(r.Context(), session.ID, payload.OptionID)
		if err != nil {
			send <- outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
			continue
		}
		send <- outboundMessage{Type: "answerResult", Payload: answerResultView{
			Correct:   result.Correct,
			Completed: result.Completed,
		}}
		if !result.Completed {
			send <- outboundMessage{Type: "question", Payload: h.currentQuestion(session)}
			continue
		}
		h.finish(r.Context(), session.ID, send)
	}

	close(done)
	<-updatesDone
	close(send)
	<-writerDone
}

// finish submits the completed session's score and reports the result
// and leaderboard receipt to the client.
func (h *PlayHandler) finish(ctx context.Context, sessionID string, send chan<- outboundMessage) {
	result, err := h.game.Result(ctx, sessionID)
	if err != nil {
		send <- outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
		return
	}
	receipt, err := h.game.SubmitResult(ctx, sessionID)
	if err != nil {
		send <- outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
		return
	}
	send <- outboundMessage{Type: "completed", Payload: completedView{Result: result, Receipt: receipt}}
}

// currentQuestion builds the client view of the pending question
// without leaking which option is correct.
func (h *PlayHandler) currentQuestion(session *app.GameSession) questionView {
	question, index, err := session.Flag.CurrentQuestion()
	if err != nil {
		return questionView{}
	}

	view := questionView{
		Index: index,
		Total: len(session.Flag.Questions()),
	}
	if session.Flag.Format() == domain.FormatNameToFlag {
		view.Prompt = question.Country.Name
	} else {
		view.Prompt = question.Country.FlagImageURL
	}
	for _, option := range question.Options {
		label := option.Name
		if session.Flag.Format() == domain.FormatNameToFlag {
			label = option.FlagImageURL
		}
		view.Options = append(view.Options, optionView{ID: option.ID, Label: label})
	}
	return view
}
