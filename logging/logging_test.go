package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugf("seeded %d parameters", 12)
	logger.Sublogger("bundle").Warnw("non-finite residuals", "count", 3)

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, entries[0].Message, test.ShouldEqual, "seeded 12 parameters")

	test.That(t, entries[1].Level, test.ShouldEqual, zapcore.WarnLevel)
	test.That(t, entries[1].LoggerName, test.ShouldEqual, "bundle")
	test.That(t, entries[1].ContextMap()["count"], test.ShouldEqual, int64(3))
	test.That(t, logs.FilterMessage("non-finite residuals").Len(), test.ShouldEqual, 1)
}

func TestBlankLogger(t *testing.T) {
	logger := NewBlankLogger("blank")
	logger.Errorf("dropped")
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, logger.Desugar().Core().Enabled(zapcore.ErrorLevel), test.ShouldBeFalse)
}

func TestLoggerLevels(t *testing.T) {
	test.That(t, NewLogger("info").Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeFalse)
	test.That(t, NewDebugLogger("debug").Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeTrue)
}
