package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/splitrix/splitrix/internal/calculator"
	"github.com/splitrix/splitrix/internal/ledger"
	"github.com/splitrix/splitrix/internal/models"
)

type createGroupRequest struct {
	Admin   string   `json:"admin"`
	Members []string `json:"members"`
}

type createGroupResponse struct {
	GroupID uint64 `json:"group_id"`
}

type debtorShareJSON struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

type nettingJSON struct {
	BillID             uint64 `json:"bill_id"`
	BillPayer          string `json:"bill_payer"`
	PayerDebtorIndex   uint64 `json:"payer_debtor_index"`
	Amount             uint64 `json:"amount"`
	NewBillDebtorIndex uint64 `json:"new_bill_debtor_index"`
}

type createBillRequest struct {
	GroupID     uint64            `json:"group_id"`
	Payer       string            `json:"payer"`
	TotalAmount uint64            `json:"total_amount"`
	Memo        string            `json:"memo"`
	Debtors     []debtorShareJSON `json:"debtors"`
	Netting     []nettingJSON     `json:"netting"`
}

type createBillResponse struct {
	BillID uint64 `json:"bill_id"`
}

type settleBillRequest struct {
	GroupID     uint64 `json:"group_id"`
	BillID      uint64 `json:"bill_id"`
	SenderIndex uint64 `json:"sender_index"`
	Payment     struct {
		Sender   string `json:"sender"`
		Receiver string `json:"receiver"`
		Amount   uint64 `json:"amount"`
	} `json:"payment"`
}

type settleBillResponse struct {
	Applied     uint64 `json:"applied"`
	Excess      uint64 `json:"excess"`
	Outstanding uint64 `json:"outstanding"`
}

type debtorJSON struct {
	Address     string `json:"address"`
	Amount      uint64 `json:"amount"`
	Paid        uint64 `json:"paid"`
	Outstanding uint64 `json:"outstanding"`
}

type billJSON struct {
	GroupID     uint64       `json:"group_id"`
	BillID      uint64       `json:"bill_id"`
	Payer       string       `json:"payer"`
	TotalAmount uint64       `json:"total_amount"`
	Memo        string       `json:"memo"`
	Debtors     []debtorJSON `json:"debtors"`
}

type groupJSON struct {
	ID          uint64   `json:"id"`
	Admin       string   `json:"admin"`
	BillCounter uint64   `json:"bill_counter"`
	Members     []string `json:"members"`
}

type balanceJSON struct {
	Address    string `json:"address"`
	NetBalance int64  `json:"net_balance"`
	TotalOwed  uint64 `json:"total_owed"`
	TotalDue   uint64 `json:"total_due"`
}

type debtEdgeJSON struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type balancesResponse struct {
	Balances []balanceJSON  `json:"balances"`
	Debts    []debtEdgeJSON `json:"debts"`
}

// recordOp counts a ledger operation outcome for metrics.
func (s *Server) recordOp(op string, err error) {
	s.metrics.LedgerOps.WithLabelValues(op, outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ledger.ErrGroupNotFound):
		return "group_not_found"
	case errors.Is(err, ledger.ErrBillNotFound):
		return "bill_not_found"
	case errors.Is(err, ledger.ErrZeroAddress):
		return "zero_address"
	case errors.Is(err, ledger.ErrTooFewMembers):
		return "too_few_members"
	case errors.Is(err, ledger.ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, ledger.ErrNoDebtors):
		return "no_debtors"
	case errors.Is(err, ledger.ErrEmptyMemo):
		return "empty_memo"
	case errors.Is(err, ledger.ErrTotalMismatch):
		return "total_mismatch"
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		return "index_out_of_range"
	case errors.Is(err, ledger.ErrPayerMismatch):
		return "payer_mismatch"
	case errors.Is(err, ledger.ErrPayeeMismatch):
		return "payee_mismatch"
	case errors.Is(err, ledger.ErrSenderMismatch):
		return "sender_mismatch"
	case errors.Is(err, ledger.ErrAlreadySettled):
		return "already_settled"
	case errors.Is(err, ledger.ErrNettingOverflow):
		return "netting_overflow"
	default:
		return "internal"
	}
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	members := make([]models.Address, len(req.Members))
	for i, m := range req.Members {
		members[i] = models.Address(m)
	}

	groupID, err := s.ledger.CreateGroup(r.Context(), models.Address(req.Admin), members)
	s.recordOp("create_group", err)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createGroupResponse{GroupID: groupID})
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	debtors := make([]models.DebtorShare, len(req.Debtors))
	for i, d := range req.Debtors {
		debtors[i] = models.DebtorShare{Address: models.Address(d.Address), Amount: d.Amount}
	}
	netting := make([]models.NettingInstruction, len(req.Netting))
	for i, n := range req.Netting {
		netting[i] = models.NettingInstruction{
			BillID:             n.BillID,
			BillPayer:          models.Address(n.BillPayer),
			PayerDebtorIndex:   n.PayerDebtorIndex,
			Amount:             n.Amount,
			NewBillDebtorIndex: n.NewBillDebtorIndex,
		}
	}

	billID, err := s.ledger.CreateBill(r.Context(), req.GroupID, models.Address(req.Payer), req.TotalAmount, debtors, req.Memo, netting)
	s.recordOp("create_bill", err)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createBillResponse{BillID: billID})
}

func (s *Server) handleSettleBill(w http.ResponseWriter, r *http.Request) {
	var req settleBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	result, err := s.ledger.SettleBill(r.Context(), req.GroupID, req.BillID, req.SenderIndex, models.PaymentProof{
		Sender:   models.Address(req.Payment.Sender),
		Receiver: models.Address(req.Payment.Receiver),
		Amount:   req.Payment.Amount,
	})
	s.recordOp("settle_bill", err)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settleBillResponse{
		Applied:     result.Applied,
		Excess:      result.Excess,
		Outstanding: result.Outstanding,
	})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid group id: %w", err))
		return
	}

	group, err := s.ledger.GetGroup(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupJSON(group))
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseUint(r.PathValue("groupId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid group id: %w", err))
		return
	}
	billID, err := strconv.ParseUint(r.PathValue("billId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid bill id: %w", err))
		return
	}

	bill, err := s.ledger.GetBill(r.Context(), groupID, billID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillJSON(bill))
}

func (s *Server) handleListGroupBills(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid group id: %w", err))
		return
	}

	bills, err := s.mirror.ListBillsByGroup(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]billJSON, len(bills))
	for i, b := range bills {
		out[i] = toBillJSON(b)
	}
	writeJSON(w, http.StatusOK, map[string][]billJSON{"bills": out})
}

func (s *Server) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid group id: %w", err))
		return
	}

	bills, err := s.mirror.ListBillsByGroup(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	balances, edges := calculator.GroupBalances(bills)

	resp := balancesResponse{
		Balances: make([]balanceJSON, len(balances)),
		Debts:    make([]debtEdgeJSON, len(edges)),
	}
	for i, b := range balances {
		resp.Balances[i] = balanceJSON{
			Address:    string(b.Address),
			NetBalance: b.NetBalance,
			TotalOwed:  b.TotalOwed,
			TotalDue:   b.TotalDue,
		}
	}
	for i, e := range edges {
		resp.Debts[i] = debtEdgeJSON{From: string(e.From), To: string(e.To), Amount: e.Amount}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListUserBills(w http.ResponseWriter, r *http.Request) {
	addr := models.Address(r.PathValue("address"))
	bills, err := s.mirror.ListBillsByUser(r.Context(), addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]billJSON, len(bills))
	for i, b := range bills {
		out[i] = toBillJSON(b)
	}
	writeJSON(w, http.StatusOK, map[string][]billJSON{"bills": out})
}

func (s *Server) handleListUserGroups(w http.ResponseWriter, r *http.Request) {
	addr := models.Address(r.PathValue("address"))
	groups, err := s.mirror.ListGroupsByMember(r.Context(), addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]groupJSON, len(groups))
	for i, g := range groups {
		out[i] = toGroupJSON(g)
	}
	writeJSON(w, http.StatusOK, map[string][]groupJSON{"groups": out})
}

func toGroupJSON(g models.Group) groupJSON {
	members := make([]string, len(g.Members))
	for i, m := range g.Members {
		members[i] = string(m)
	}
	return groupJSON{
		ID:          g.ID,
		Admin:       string(g.Admin),
		BillCounter: g.BillCounter,
		Members:     members,
	}
}

func toBillJSON(b models.Bill) billJSON {
	debtors := make([]debtorJSON, len(b.Debtors))
	for i, d := range b.Debtors {
		debtors[i] = debtorJSON{
			Address:     string(d.Address),
			Amount:      d.Amount,
			Paid:        d.Paid,
			Outstanding: d.Outstanding(),
		}
	}
	return billJSON{
		GroupID:     b.GroupID,
		BillID:      b.ID,
		Payer:       string(b.Payer),
		TotalAmount: b.TotalAmount,
		Memo:        b.Memo,
		Debtors:     debtors,
	}
}
