//go:build linux

package collector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tklauser/go-sysconf"
)

var clkTck = 100.0

func init() {
	if sc, err := sysconf.Sysconf(sysconf.SC_CLK_TCK); err == nil && sc > 0 {
		clkTck = float64(sc)
	}
}

// ReadCPUTimes parses the cpu lines of <procRoot>/stat.
func ReadCPUTimes(procRoot string) ([]CPUTimes, error) {
	f, err := os.Open(filepath.Join(procRoot, "stat"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseProcStatFrom(f)
}

func parseProcStatFrom(r io.Reader) ([]CPUTimes, error) {
	var result []CPUTimes
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu") {
			break
		}

		t, err := parseCPULine(line)
		if err != nil {
			continue
		}
		result = append(result, t)
	}

	return result, scanner.Err()
}

func parseCPULine(line string) (CPUTimes, error) {
	fields := strings.Fields(line)
	if len(fields) < 11 {
		return CPUTimes{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	var err error
	parse := makeUintParser(fields, "/proc/stat:"+fields[0], &err)
	tick := func(i int) time.Duration {
		return ticksToDuration(parse(i))
	}

	t := CPUTimes{
		Name:   fields[0],
		User:   tick(1),
		Nice:   tick(2),
		System: tick(3),
		Idle:   tick(4),
		ext: &linuxCPUTimes{
			ioWait:  tick(5),
			irq:     tick(6),
			softIRQ: tick(7),
			steal:   tick(8),
		},
	}
	if err != nil {
		return CPUTimes{}, err
	}
	return t, nil
}

func ticksToDuration(ticks uint64) time.Duration {
	return time.Duration(float64(ticks) / clkTck * float64(time.Second))
}
