// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sim

import (
	"github.com/everx-labs/ton-labs-contracts/elector/message"
	"github.com/everx-labs/ton-labs-contracts/ton"
)

// StakeRequest builds a signed stake of v for election stakeAt.
func StakeRequest(v *Validator, stakeAt uint32, amount uint64, maxFactor uint32) *message.Stake {
	r := &message.Stake{
		Header:    v.header(v.Address.Workchain, amount),
		PubKey:    v.PubKey,
		StakeAt:   stakeAt,
		MaxFactor: maxFactor,
		ADNL:      v.ADNL,
	}
	r.Signature = v.Sign(message.StakeDigest(r))
	return r
}

func (c *Context) Stake(v *Validator, stakeAt uint32, amount uint64, maxFactor uint32) (message.Response, error) {
	return c.Send(v.Wallet, StakeRequest(v, stakeAt, amount, maxFactor))
}

func (c *Context) Recover(w *Wallet) (message.Response, error) {
	return c.Send(w, &message.Recover{Header: w.header(w.Address.Workchain, 0)})
}

// ReportRequest builds a signed report of reporter against victim.
func ReportRequest(reporter *Validator, victim ton.PubKey, metric uint8) *message.Report {
	r := &message.Report{
		Header:   reporter.header(reporter.Address.Workchain, 0),
		Reporter: reporter.PubKey,
		Victim:   victim,
		MetricID: metric,
	}
	r.Signature = reporter.Sign(message.ReportDigest(r))
	return r
}

func (c *Context) Report(reporter *Validator, victim ton.PubKey, metric uint8) (message.Response, error) {
	return c.Send(reporter.Wallet, ReportRequest(reporter, victim, metric))
}

func (c *Context) Complain(w *Wallet, wc ton.WorkchainID, electID uint32, victim ton.PubKey, fine, value uint64) (message.Response, error) {
	return c.Send(w, &message.Complain{
		Header:  w.header(wc, value),
		ElectID: electID,
		Victim:  victim,
		Fine:    fine,
	})
}

func (c *Context) Vote(v *Validator, electID uint32, complaint ton.Bytes32) (message.Response, error) {
	r := &message.Vote{
		Header:    v.header(v.Address.Workchain, 0),
		Voter:     v.PubKey,
		ElectID:   electID,
		Complaint: complaint,
	}
	r.Signature = v.Sign(message.VoteDigest(r))
	return c.Send(v.Wallet, r)
}

func (c *Context) Transfer(w *Wallet, amount uint64) (message.Response, error) {
	return c.Send(w, &message.Transfer{Header: w.header(w.Address.Workchain, amount)})
}

func (c *Context) Grant(w *Wallet, wc ton.WorkchainID, amount uint64) (message.Response, error) {
	return c.Send(w, &message.Grant{Header: w.header(wc, amount)})
}
