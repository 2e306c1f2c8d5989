package gameapi

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"horizon-tapper/internal/domain/game"
)

// number принимает JSON-число, строку с числом или null. Сервер непоследователен
// в типах полей ракеты, поэтому строгий int/float здесь ломал бы разбор.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = number(v)
	return nil
}

func (n number) int() int       { return int(math.Trunc(float64(n))) }
func (n number) int64() int64   { return int64(math.Trunc(float64(n))) }
func (n number) float() float64 { return float64(n) }

type rocketDTO struct {
	Distance           number `json:"distance"`
	BoostAttempts      number `json:"boost_attempts"`
	LastBoostTimestamp number `json:"last_boost_timestamp"`
	BoostTaps          number `json:"boost_taps"`
}

func (r rocketDTO) toDomain() game.RocketState {
	return game.RocketState{
		Distance:           r.Distance.float(),
		BoostAttempts:      r.BoostAttempts.int(),
		LastBoostTimestamp: r.LastBoostTimestamp.int64(),
		BoostTaps:          r.BoostTaps.int(),
	}
}

type userDTO struct {
	Name           string `json:"name"`
	ReferralsCount number `json:"referrals_count"`
}

type loginResponse struct {
	OK     bool      `json:"ok"`
	Rocket rocketDTO `json:"rocket"`
	User   userDTO   `json:"user"`
}

func (r loginResponse) toDomain() *game.LoginResult {
	return &game.LoginResult{
		OK:     r.OK,
		Rocket: r.Rocket.toDomain(),
		User: game.UserInfo{
			Name:           r.User.Name,
			ReferralsCount: r.User.ReferralsCount.int(),
		},
	}
}

type rocketResponse struct {
	Rocket *rocketDTO `json:"rocket"`
}

// toDomain возвращает nil, если в ответе нет ракеты (тело null или {}):
// такой ответ вызывающий считает неуспешным.
func (r rocketResponse) toDomain() *game.RocketResult {
	if r.Rocket == nil {
		return nil
	}
	return &game.RocketResult{Rocket: r.Rocket.toDomain()}
}
