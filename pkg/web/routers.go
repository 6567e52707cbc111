package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/ulule/limiter/v3"
	mhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

type M = render.M

func (s *server) strapRouter() {

	s.ar.Get("/ping", handlerPing)

	s.ar.Route("/api", func(r chi.Router) {
		r.Get("/config", s.getConfig)
		r.Post("/key", s.postKey)
		r.Get("/welcome", s.getWelcome)
		r.Get("/history", s.getHistory)
		r.Delete("/history", s.deleteHistory)

		r.Group(func(r chi.Router) {
			if mw := s.chatLimiter(); mw != nil {
				r.Use(mw)
			}
			r.Post("/chat", s.postChat)
			r.Post("/chat-sse", s.postChatSSE)
		})
	})

	if s.cfg.DocHandler != nil {
		s.ar.Get("/", s.cfg.DocHandler.ServeHTTP)
		s.ar.NotFound(s.cfg.DocHandler.ServeHTTP)
	}
}

// chatLimiter limits chat requests per client ip
func (s *server) chatLimiter() func(http.Handler) http.Handler {
	if len(s.cfg.ChatRateLimit) == 0 {
		return nil
	}
	rate, err := limiter.NewRateFromFormatted(s.cfg.ChatRateLimit)
	if err != nil {
		logger().Infow("invalid chat rate limit, disabled", "rate", s.cfg.ChatRateLimit, "err", err)
		return nil
	}
	mw := mhttp.NewMiddleware(limiter.New(memory.NewStore(), rate),
		mhttp.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			apiFail(w, r, http.StatusTooManyRequests, "too many requests, slow down a little")
		}))
	return mw.Handler
}

func handlerPing(w http.ResponseWriter, r *http.Request) {
	render.Data(w, r, []byte("Pong\n"))
}

func apiFail(w http.ResponseWriter, r *http.Request, status int, err any) {
	res := render.M{
		"status": status,
		"error":  err,
	}
	switch ret := err.(type) {
	case error:
		res["error"] = ret.Error()
		res["message"] = ret.Error()
	case fmt.Stringer:
		res["message"] = ret.String()
	case string, *string, []byte:
		res["message"] = ret
	}
	render.Status(r, status)
	render.JSON(w, r, res)
}

type RespDone struct {
	Status int `json:"status"`
	Data   any `json:"data,omitempty"`
	Count  int `json:"count,omitempty"`
}

func apiOk(w http.ResponseWriter, r *http.Request, args ...any) {
	res := &RespDone{}
	if len(args) > 0 && args[0] != nil {
		res.Data = args[0]
		if len(args) > 1 {
			if c, ok := args[1].(int); ok {
				res.Count = c
			}
		}
	}

	render.JSON(w, r, res)
}
