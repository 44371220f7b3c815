// Copyright 2026 The NetPlumber Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

package processmetrics

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/procfs"

	"github.com/netplumber/netplumber/pkg/private/serrors"
)

var (
	runningTime = prometheus.NewDesc(
		"process_running_seconds_total",
		"CPU time the process used (running state) since it started (all threads summed).",
		nil, nil,
	)
	runnableTime = prometheus.NewDesc(
		"process_runnable_seconds_total",
		"CPU time the process was denied (runnable state) since it started (all threads summed).",
		nil, nil,
	)
	goCores = prometheus.NewDesc(
		"go_sched_maxprocs_threads",
		"The current runtime.GOMAXPROCS setting.",
		nil, nil,
	)
	tasklistUpdates = prometheus.NewDesc(
		"process_metrics_tasklist_updates_total",
		"The number of times the collector recreated its list of threads.",
		nil, nil,
	)
)

// collector reads /proc/<pid>/task/*/schedstat on every scrape.
type collector struct {
	pid         int
	threads     procfs.Procs
	tasks       *os.File
	taskCount   uint64
	listUpdates int64
	running     uint64
	runnable    uint64
}

func (c *collector) update() error {
	// The thread list only changes with the link count of the task directory.
	// Go never ends the threads it creates.
	var st syscall.Stat_t
	if err := syscall.Fstat(int(c.tasks.Fd()), &st); err != nil {
		return err
	}
	//nolint:unconvert // Nlink is uint32 on arm64.
	count := uint64(st.Nlink - 2)
	if count != c.taskCount {
		threads, err := procfs.AllThreads(c.pid)
		if err != nil {
			return err
		}
		c.threads = threads
		c.taskCount = count
		c.listUpdates++
	}

	var running, runnable uint64
	var err error
	for _, p := range c.threads {
		s, serr := p.Schedstat()
		if serr != nil {
			// The thread is gone. The others are still valid.
			err = serr
			continue
		}
		running += s.RunningNanoseconds
		runnable += s.WaitingNanoseconds
	}
	c.running, c.runnable = running, runnable
	return err
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	_ = c.update()
	ch <- prometheus.MustNewConstMetric(runningTime, prometheus.CounterValue,
		float64(c.running)/1e9)
	ch <- prometheus.MustNewConstMetric(runnableTime, prometheus.CounterValue,
		float64(c.runnable)/1e9)
	ch <- prometheus.MustNewConstMetric(goCores, prometheus.GaugeValue,
		float64(runtime.GOMAXPROCS(-1)))
	ch <- prometheus.MustNewConstMetric(tasklistUpdates, prometheus.CounterValue,
		float64(c.listUpdates))
}

// Init registers the process collector with reg. Register it only once per
// registry. Errors can be ignored at the cost of the missing metrics.
func Init(reg prometheus.Registerer) error {
	pid := os.Getpid()
	path := filepath.Join(procfs.DefaultMountPoint, strconv.Itoa(pid), "task")
	tasks, err := os.Open(path)
	if err != nil {
		return serrors.Wrap("opening task directory", err, "pid", pid)
	}
	c := &collector{pid: pid, tasks: tasks}
	if err := c.update(); err != nil {
		tasks.Close()
		return serrors.Wrap("reading scheduler statistics", err)
	}
	if err := reg.Register(c); err != nil {
		tasks.Close()
		return serrors.Wrap("registering collector", err)
	}
	return nil
}
