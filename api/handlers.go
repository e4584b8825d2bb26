package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"food-delivery/metrics"
	"food-delivery/models"
	"food-delivery/services"
)

type statusRequest struct {
	Status string `json:"status"`
}

// CourierCreated is returned once when a courier is registered; the
// generated password is never retrievable again.
type CourierCreated struct {
	Courier           models.Courier `json:"courier"`
	GeneratedPassword string         `json:"generated_password,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := readJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Login(r.Context(), s.auth, s.adminPassword, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	var in models.CreateClientInput
	if err := readJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.RegisterClient(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c.Public())
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	id := mux.Vars(r)["id"]
	if !selfOrAdmin(actor, services.RoleClient, id) {
		s.writeError(w, r, services.ErrForbidden)
		return
	}
	c, err := s.svc.GetClient(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Public())
}

func (s *Server) handleSetClientStatus(w http.ResponseWriter, r *http.Request, _ services.Actor) {
	var in statusRequest
	if err := readJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.SetClientStatus(r.Context(), mux.Vars(r)["id"], in.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Public())
}

func (s *Server) handleRegisterCourier(w http.ResponseWriter, r *http.Request, _ services.Actor) {
	var in models.CreateCourierInput
	if err := readJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, generated, err := s.svc.RegisterCourier(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CourierCreated{Courier: c.Public(), GeneratedPassword: generated})
}

func (s *Server) handleListCouriers(w http.ResponseWriter, r *http.Request, _ services.Actor) {
	list, err := s.svc.ListCouriers(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]models.Courier, len(list))
	for i, c := range list {
		out[i] = c.Public()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCourier(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	id := mux.Vars(r)["id"]
	if !selfOrAdmin(actor, services.RoleCourier, id) {
		s.writeError(w, r, services.ErrForbidden)
		return
	}
	c, err := s.svc.GetCourier(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Public())
}

func (s *Server) handleSetCourierStatus(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	var in statusRequest
	if err := readJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.SetCourierStatus(r.Context(), actor, mux.Vars(r)["id"], in.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Public())
}

func (s *Server) handleCourierOrders(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	id := mux.Vars(r)["id"]
	if !selfOrAdmin(actor, services.RoleCourier, id) {
		s.writeError(w, r, services.ErrForbidden)
		return
	}
	orders, err := s.svc.CourierActiveOrders(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleRegisterRestaurant(w http.ResponseWriter, r *http.Request, _ services.Actor) {
	var in models.CreateRestaurantInput
	if err := readJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	rest, err := s.svc.RegisterRestaurant(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rest.Public())
}

func (s *Server) handleListRestaurants(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListRestaurants(r.Context(), r.URL.Query().Get("cuisine"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]models.Restaurant, len(list))
	for i, rest := range list {
		out[i] = rest.Public()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRestaurant(w http.ResponseWriter, r *http.Request) {
	rest, err := s.svc.GetRestaurant(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rest.Public())
}

func (s *Server) handlePutCombo(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	id := mux.Vars(r)["id"]
	if !selfOrAdmin(actor, services.RoleRestaurant, id) {
		s.writeError(w, r, services.ErrForbidden)
		return
	}
	var combo models.Combo
	if err := readJSON(r, &combo); err != nil {
		s.writeError(w, r, err)
		return
	}
	rest, err := s.svc.PutCombo(r.Context(), id, combo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rest.Public())
}

func (s *Server) handleRemoveCombo(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	vars := mux.Vars(r)
	if !selfOrAdmin(actor, services.RoleRestaurant, vars["id"]) {
		s.writeError(w, r, services.ErrForbidden)
		return
	}
	number, err := strconv.Atoi(vars["number"])
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: combo number", services.ErrInvalidInput))
		return
	}
	rest, err := s.svc.RemoveCombo(r.Context(), vars["id"], number)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rest.Public())
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	var in models.CreateOrderInput
	if err := readJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if actor.Role == services.RoleClient {
		in.ClientID = actor.ID
	}
	o, err := s.svc.CreateOrder(r.Context(), in)
	if err != nil {
		metrics.RecordOrderRejected(services.ErrorCode(err))
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	q := r.URL.Query()
	orders, err := s.svc.ListOrders(r.Context(), actor, models.OrderFilter{
		ClientID:     q.Get("client_id"),
		RestaurantID: q.Get("restaurant_id"),
		CourierID:    q.Get("courier_id"),
		Status:       q.Get("status"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	o, err := s.svc.GetOrder(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	var in statusRequest
	if err := readJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.svc.UpdateOrderStatus(r.Context(), actor, mux.Vars(r)["id"], in.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request, actor services.Actor) {
	var in models.FeedbackInput
	if err := readJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.ClientID = actor.ID
	if _, err := s.svc.SubmitFeedback(r.Context(), mux.Vars(r)["id"], in); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseDay accepts YYYY-MM-DD or RFC 3339.
func parseDay(v string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: bad date %q", services.ErrInvalidInput, v)
	}
	return t, false, nil
}

// handleRevenueReport reads from/to; a bare date in "to" includes that whole day.
func (s *Server) handleRevenueReport(w http.ResponseWriter, r *http.Request, _ services.Actor) {
	q := r.URL.Query()
	fromStr, toStr := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if fromStr == "" || toStr == "" {
		s.writeError(w, r, fmt.Errorf("%w: from and to are required", services.ErrInvalidInput))
		return
	}
	from, _, err := parseDay(fromStr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, isDate, err := parseDay(toStr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if isDate {
		to = to.AddDate(0, 0, 1)
	}
	rep, err := s.svc.RevenueReport(r.Context(), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
