// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package elector

import "github.com/everx-labs/ton-labs-contracts/metrics"

var (
	metricRequests  = metrics.LazyLoadCounterVec("requests_total", []string{"kind", "response"})
	metricStakes    = metrics.LazyLoadCounterVec("stakes_total", []string{"wc", "code"})
	metricElections = metrics.LazyLoadCounterVec("elections_total", []string{"wc", "event"})
	metricBans      = metrics.LazyLoadCounter("bans_total")
	metricBounces   = metrics.LazyLoadCounter("bounced_payouts_total")
	metricBanned    = metrics.LazyLoadGauge("banned_validators")
	metricFrozen    = metrics.LazyLoadGaugeVec("frozen_stake", []string{"wc"})
	metricDispatch  = metrics.LazyLoadHistogram("dispatch_us", metrics.BucketDispatch)
)
