package sample

import (
	"log"
	"time"
)

// DefaultAverageEvery is the default output period of the averaging converter.
const DefaultAverageEvery = 100 * time.Millisecond

// NewAveragingConverter creates a stage that averages the last windowSize
// Samples and emits the average every period. This reduces noise in the
// display without touching the firmware filter.
func NewAveragingConverter(windowSize, bufSize int, every time.Duration) func(in <-chan Sample) <-chan Sample {
	if windowSize <= 0 {
		windowSize = 1
	}
	if bufSize <= 0 {
		bufSize = 100
	}
	if every <= 0 {
		every = DefaultAverageEvery
	}

	return func(in <-chan Sample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var buffer []Sample
			ticker := time.NewTicker(every)
			defer ticker.Stop()

			for {
				select {
				case s, ok := <-in:
					if !ok {
						// Input closed, flush what is left
						if len(buffer) > 0 {
							select {
							case out <- Average(buffer):
							default:
							}
						}
						return
					}

					buffer = append(buffer, s)
					if len(buffer) > windowSize {
						buffer = buffer[1:] // Remove oldest
					}

				case <-ticker.C:
					if len(buffer) > 0 {
						select {
						case out <- Average(buffer):
						default:
							log.Printf("Averaging converter output channel full")
						}
					}
				}
			}
		}()

		return out
	}
}

// Average averages samples per channel, keeping the newest timestamp.
func Average(samples []Sample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	avg := Sample{Timestamp: samples[len(samples)-1].Timestamp}
	for _, s := range samples {
		for i, v := range s.Values {
			avg.Values[i] += v
		}
	}

	n := float64(len(samples))
	for i := range avg.Values {
		avg.Values[i] /= n
	}
	return avg
}
