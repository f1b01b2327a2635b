package mahjong

import (
	"fmt"
	"time"
)

type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsRiichi bool   `json:"isRiichi"`
	Wind     Wind   `json:"wind"`
	Chip     int    `json:"chip"`
}

type Round struct {
	Wind         Wind `json:"wind"`
	Number       int  `json:"number"`
	Honba        int  `json:"honba"`
	RiichiSticks int  `json:"riichiSticks"`
	// Count increases each time play wraps from North back to East.
	Count int `json:"count"`
}

func InitialRound() Round {
	return Round{Wind: East, Number: 1, Count: 1}
}

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
	StatusEnded    Status = "ended"
)

type LoggedWin struct {
	PlayerID string    `json:"playerId"`
	Hand     HandValue `json:"hand"`
	Payment  Payment   `json:"payment"`
	Chips    int       `json:"chips,omitempty"`
}

// HandLog records one finished hand for history and statistics.
type HandLog struct {
	ID              string         `json:"id"`
	Timestamp       time.Time      `json:"timestamp"`
	Round           Round          `json:"round"`
	Kind            OutcomeKind    `json:"kind"`
	Winners         []LoggedWin    `json:"winners,omitempty"`
	LoserID         string         `json:"loserId,omitempty"`
	RiichiPlayerIDs []string       `json:"riichiPlayerIds,omitempty"`
	TenpaiPlayerIDs []string       `json:"tenpaiPlayerIds,omitempty"`
	ScoreDeltas     map[string]int `json:"scoreDeltas"`
	ChipDeltas      map[string]int `json:"chipDeltas,omitempty"`
}

type EventDelta struct {
	Hand   int `json:"hand"`
	Sticks int `json:"sticks"`
	Chips  int `json:"chips,omitempty"`
}

// LastEvent is the most recent score change, keyed by player.
type LastEvent struct {
	ID     string                `json:"id"`
	Deltas map[string]EventDelta `json:"deltas"`
}

// Session is the whole state of a table between hands.
type Session struct {
	Players     []Player   `json:"players"`
	Round       Round      `json:"round"`
	Settings    Settings   `json:"settings"`
	Status      Status     `json:"status"`
	CurrentLogs []HandLog  `json:"currentLogs,omitempty"`
	LastEvent   *LastEvent `json:"lastEvent,omitempty"`
}

// Stamp carries the identifiers and time a resolution records.
type Stamp struct {
	ID       string
	ResultID string
	At       time.Time
}

type WinClaim struct {
	WinnerID string    `json:"winnerId"`
	Hand     HandValue `json:"hand"`
	Chips    int       `json:"chips"`
}

// WinReport is one or more winners of the same hand. A set LoserID makes it a ron.
type WinReport struct {
	Claims  []WinClaim `json:"claims"`
	LoserID string     `json:"loserId"`
}

// Resolution is the session after a hand together with what produced it.
type Resolution struct {
	Session    Session
	Log        HandLog
	Transition Transition
	Result     *GameResult
	// Pool is the riichi stick value paid out of the table pool this hand.
	Pool int
}

func NewSession(s Settings, host Player) (Session, error) {
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	host.Score = s.StartPoint
	host.Wind = East
	host.IsRiichi = false
	return Session{
		Players:  []Player{host},
		Round:    InitialRound(),
		Settings: s,
		Status:   StatusWaiting,
	}, nil
}

func (sess Session) clone() Session {
	out := sess
	out.Players = clonePlayers(sess.Players)
	if sess.CurrentLogs != nil {
		out.CurrentLogs = append([]HandLog(nil), sess.CurrentLogs...)
	}
	if sess.LastEvent != nil {
		ev := *sess.LastEvent
		out.LastEvent = &ev
	}
	return out
}

func (sess Session) SeatIDs() []string {
	ids := make([]string, len(sess.Players))
	for i, p := range sess.Players {
		ids[i] = p.ID
	}
	return ids
}

func (sess Session) Player(id string) (Player, bool) {
	for _, p := range sess.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

func (sess Session) indexOf(id string) int {
	for i, p := range sess.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Join seats a new player at the next free wind.
func Join(sess Session, p Player) (Session, error) {
	if sess.Status != StatusWaiting {
		return Session{}, ErrNotWaiting
	}
	if sess.indexOf(p.ID) >= 0 {
		return Session{}, ErrAlreadySeated
	}
	if len(sess.Players) >= sess.Settings.Seats() {
		return Session{}, ErrRoomFull
	}
	out := sess.clone()
	p.Score = sess.Settings.StartPoint
	p.Wind = SeatWind(len(out.Players))
	p.IsRiichi = false
	out.Players = append(out.Players, p)
	return out, nil
}

// Seat reorders players; the first id becomes East.
func Seat(sess Session, order []string) (Session, error) {
	if sess.Status != StatusWaiting {
		return Session{}, ErrNotWaiting
	}
	if len(order) != len(sess.Players) {
		return Session{}, fmt.Errorf("%w: order lists %d of %d players", ErrUnknownPlayer, len(order), len(sess.Players))
	}
	out := sess.clone()
	seen := make(map[string]bool, len(order))
	for i, id := range order {
		idx := sess.indexOf(id)
		if idx < 0 || seen[id] {
			return Session{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
		}
		seen[id] = true
		p := sess.Players[idx]
		p.Wind = SeatWind(i)
		out.Players[i] = p
	}
	return out, nil
}

func Start(sess Session) (Session, error) {
	if sess.Status != StatusWaiting {
		return Session{}, ErrNotWaiting
	}
	if len(sess.Players) != sess.Settings.Seats() {
		return Session{}, fmt.Errorf("%w: %d seated for %s", ErrInvalidPlayerCount, len(sess.Players), sess.Settings.Mode)
	}
	out := sess.clone()
	out.Status = StatusPlaying
	out.Round = InitialRound()
	out.LastEvent = nil
	return out, nil
}

// DeclareRiichi moves 1000 points from the player into the stick pool.
func DeclareRiichi(sess Session, playerID string) (Session, error) {
	if sess.Status != StatusPlaying {
		return Session{}, ErrNotPlaying
	}
	idx := sess.indexOf(playerID)
	if idx < 0 {
		return Session{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	p := sess.Players[idx]
	if p.IsRiichi {
		return Session{}, fmt.Errorf("%w: already declared", ErrRiichiNotAllowed)
	}
	if p.Score < riichiStickValue {
		return Session{}, fmt.Errorf("%w: score below %d", ErrRiichiNotAllowed, riichiStickValue)
	}
	out := sess.clone()
	out.Players[idx].Score -= riichiStickValue
	out.Players[idx].IsRiichi = true
	out.Round.RiichiSticks++
	return out, nil
}

// ResolveWin pays out one or more winners and advances the round. With
// several ron winners the one closest to the loser's right collects the pool.
func ResolveWin(sess Session, report WinReport, st Stamp) (Resolution, error) {
	if sess.Status != StatusPlaying {
		return Resolution{}, ErrNotPlaying
	}
	claims, err := orderClaims(sess, report)
	if err != nil {
		return Resolution{}, err
	}

	s := sess.Settings
	seats := sess.SeatIDs()
	dealerID := DealerID(sess.Players)
	method := Tsumo
	if report.LoserID != "" {
		method = Ron
	}

	totals := make(map[string]EventDelta, len(seats))
	winners := make([]LoggedWin, 0, len(claims))
	winnerIDs := make([]string, 0, len(claims))
	pool := 0
	for i, c := range claims {
		if err := s.CheckHand(c.Hand); err != nil {
			return Resolution{}, err
		}
		role := NonDealer
		if c.WinnerID == dealerID {
			role = Dealer
		}
		payment := CalculatePayment(s, c.Hand, role, method)
		sticks := 0
		if i == 0 {
			sticks = sess.Round.RiichiSticks
			pool = riichiStickValue * sticks
		}
		deltas, err := CalculateTransaction(Transfer{
			Payment:      payment,
			WinnerID:     c.WinnerID,
			LoserID:      report.LoserID,
			Seats:        seats,
			DealerID:     dealerID,
			Honba:        sess.Round.Honba,
			RiichiSticks: sticks,
			HonbaUnit:    s.honbaUnit(),
		})
		if err != nil {
			return Resolution{}, err
		}
		for _, d := range deltas {
			ev := totals[d.PlayerID]
			ev.Hand += d.Hand
			ev.Sticks += d.Sticks
			totals[d.PlayerID] = ev
		}
		chips := 0
		if s.UseChip {
			chips = c.Chips
			applyChips(totals, seats, c.WinnerID, report.LoserID, chips)
		}
		winners = append(winners, LoggedWin{PlayerID: c.WinnerID, Hand: c.Hand, Payment: payment, Chips: chips})
		winnerIDs = append(winnerIDs, c.WinnerID)
	}

	outcome := HandOutcome{Kind: OutcomeWin, WinnerIDs: winnerIDs, LoserID: report.LoserID}
	log := HandLog{
		Kind:    OutcomeWin,
		Winners: winners,
		LoserID: report.LoserID,
	}
	res, err := settleHand(sess, outcome, totals, log, st)
	if err != nil {
		return Resolution{}, err
	}
	res.Session.Round.RiichiSticks = 0
	res.Transition.Next.RiichiSticks = 0
	res.Pool = pool
	return res, nil
}

// ResolveDraw settles an exhaustive draw. Riichi sticks stay on the table.
func ResolveDraw(sess Session, tenpaiIDs []string, st Stamp) (Resolution, error) {
	if sess.Status != StatusPlaying {
		return Resolution{}, ErrNotPlaying
	}
	seen := make(map[string]bool, len(tenpaiIDs))
	ready := make([]string, 0, len(tenpaiIDs))
	for _, id := range tenpaiIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ready = append(ready, id)
	}
	deltas, err := DrawDeltas(sess.SeatIDs(), ready, sess.Settings.Mode)
	if err != nil {
		return Resolution{}, err
	}
	totals := make(map[string]EventDelta, len(deltas))
	for _, d := range deltas {
		totals[d.PlayerID] = EventDelta{Hand: d.Hand, Sticks: d.Sticks}
	}
	outcome := HandOutcome{Kind: OutcomeDraw, TenpaiIDs: ready}
	log := HandLog{Kind: OutcomeDraw, TenpaiPlayerIDs: ready}
	return settleHand(sess, outcome, totals, log, st)
}

// settleHand applies accumulated deltas, runs the round transition and
// closes the game when it ends.
func settleHand(sess Session, outcome HandOutcome, totals map[string]EventDelta, log HandLog, st Stamp) (Resolution, error) {
	out := sess.clone()

	log.ID = st.ID
	log.Timestamp = st.At
	log.Round = sess.Round
	log.ScoreDeltas = make(map[string]int, len(out.Players))
	event := &LastEvent{ID: st.ID, Deltas: map[string]EventDelta{}}
	for i := range out.Players {
		p := &out.Players[i]
		if p.IsRiichi {
			log.RiichiPlayerIDs = append(log.RiichiPlayerIDs, p.ID)
		}
		d := totals[p.ID]
		p.Score += d.Hand + d.Sticks
		p.Chip += d.Chips
		p.IsRiichi = false
		log.ScoreDeltas[p.ID] = d.Hand + d.Sticks
		if d.Chips != 0 {
			if log.ChipDeltas == nil {
				log.ChipDeltas = map[string]int{}
			}
			log.ChipDeltas[p.ID] = d.Chips
		}
		if d.Hand != 0 || d.Sticks != 0 || d.Chips != 0 {
			event.Deltas[p.ID] = d
		}
	}
	out.LastEvent = event

	tr := NextRound(sess.Settings, sess.Round, out.Players, outcome)
	res := Resolution{Transition: tr, Log: log}

	if tr.GameOver {
		result, err := CalculateFinalScores(out.Players, sess.Settings, st.ResultID, st.At)
		if err != nil {
			return Resolution{}, err
		}
		result.Logs = append(append([]HandLog(nil), out.CurrentLogs...), log)
		for i := range result.Scores {
			result.Scores[i].ChipDiff = chipDiff(result.Logs, result.Scores[i].PlayerID)
		}
		res.Result = &result
		out.CurrentLogs = nil
		out.Status = StatusFinished
	} else {
		out.CurrentLogs = append(out.CurrentLogs, log)
	}

	if !tr.Renchan {
		out.Players = RotateWinds(out.Players)
	}
	out.Round = tr.Next
	res.Session = out
	return res, nil
}

// NextGame resets scores for another game with the same table. Chips carry over.
func NextGame(sess Session) (Session, error) {
	if sess.Status != StatusFinished {
		return Session{}, fmt.Errorf("%w: game has not finished", ErrNotPlaying)
	}
	out := sess.clone()
	for i := range out.Players {
		out.Players[i].Score = sess.Settings.StartPoint
		out.Players[i].IsRiichi = false
		out.Players[i].Wind = SeatWind(i)
	}
	out.Round = InitialRound()
	out.Status = StatusWaiting
	out.CurrentLogs = nil
	out.LastEvent = nil
	return out, nil
}

func End(sess Session) Session {
	out := sess.clone()
	out.Status = StatusEnded
	return out
}

func orderClaims(sess Session, report WinReport) ([]WinClaim, error) {
	if len(report.Claims) == 0 {
		return nil, fmt.Errorf("%w: no winner", ErrInvalidOutcome)
	}
	if report.LoserID == "" && len(report.Claims) > 1 {
		return nil, fmt.Errorf("%w: only one player can win by tsumo", ErrInvalidOutcome)
	}
	loser := -1
	if report.LoserID != "" {
		loser = sess.indexOf(report.LoserID)
		if loser < 0 {
			return nil, fmt.Errorf("%w: loser %s", ErrUnknownPlayer, report.LoserID)
		}
	}
	n := len(sess.Players)
	if len(report.Claims) > n-1 {
		return nil, fmt.Errorf("%w: too many winners", ErrInvalidOutcome)
	}

	bySeat := make(map[int]WinClaim, len(report.Claims))
	for _, c := range report.Claims {
		idx := sess.indexOf(c.WinnerID)
		switch {
		case idx < 0:
			return nil, fmt.Errorf("%w: winner %s", ErrUnknownPlayer, c.WinnerID)
		case idx == loser:
			return nil, fmt.Errorf("%w: winner cannot pay themselves", ErrInvalidOutcome)
		case c.Chips < 0:
			return nil, fmt.Errorf("%w: negative chips", ErrInvalidOutcome)
		}
		if _, dup := bySeat[idx]; dup {
			return nil, fmt.Errorf("%w: winner %s listed twice", ErrInvalidOutcome, c.WinnerID)
		}
		bySeat[idx] = c
	}

	// turn order starting from the seat after the loser
	ordered := make([]WinClaim, 0, len(bySeat))
	start := loser
	if start < 0 {
		start = 0
	}
	for step := 1; step <= n; step++ {
		if c, ok := bySeat[(start+step)%n]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

func applyChips(totals map[string]EventDelta, seats []string, winnerID, loserID string, chips int) {
	if chips == 0 {
		return
	}
	add := func(id string, v int) {
		ev := totals[id]
		ev.Chips += v
		totals[id] = ev
	}
	if loserID != "" {
		add(loserID, -chips)
		add(winnerID, chips)
		return
	}
	for _, id := range seats {
		if id == winnerID {
			continue
		}
		add(id, -chips)
		add(winnerID, chips)
	}
}

func chipDiff(logs []HandLog, playerID string) int {
	sum := 0
	for _, l := range logs {
		sum += l.ChipDeltas[playerID]
	}
	return sum
}

func clonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	return append([]Player(nil), players...)
}
