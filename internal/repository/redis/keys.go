package redis

import "fmt"

const ns = "railtix:v1"

func KeyTrain(trainID int64) string {
	return fmt.Sprintf("%s:train:%d", ns, trainID)
}

func KeyAvailability(trainID int64) string {
	return fmt.Sprintf("%s:train:%d:availability", ns, trainID)
}

func KeyTrainList() string {
	return ns + ":trains"
}

func KeyPromotions() string {
	return ns + ":promotions"
}

func KeySeats(trainID int64) string {
	return fmt.Sprintf("%s:seats:%d", ns, trainID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemPurchase(idemKey string) string {
	return fmt.Sprintf("%s:idem:purchase:%s", ns, idemKey)
}

func ChannelTrainsChanged() string {
	return ns + ":trains:changed"
}
