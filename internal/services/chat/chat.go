// Package chat содержит бизнес-логику AI-ассистента: проверку и списание
// права на поиск, сборку промпта с контекстом диалога и позицией
// пользователя, вызов модели и дополнение ответа местами поблизости,
// когда модель просит об этом маркером [SEARCH_NEARBY:category|keyword].
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

// Системный промпт ассистента. Ответы на вьетнамском, короткие.
const systemPrompt = `Bạn là trợ lý AI của Vivu Travel - nền tảng lập kế hoạch du lịch thông minh tại Việt Nam.

NHIỆM VỤ:
- Tư vấn về địa điểm du lịch, khách sạn, nhà hàng, quán ăn, café tại Việt Nam
- Giúp người dùng lập kế hoạch chuyến đi, tính toán chi phí, gợi ý lịch trình
- Tìm kiếm địa điểm gần vị trí hiện tại của người dùng (nếu được cấp quyền)

GÓI PREMIUM:
- Dùng thử miễn phí: 1 ngày Premium cho người dùng mới
- Gói tháng: 25,000 VNĐ/tháng - Gói năm: 250,000 VNĐ/năm (tiết kiệm 2 tháng)
- Mã khuyến mãi demo: VIVU1MON để nhận 1 tháng Premium miễn phí

PHONG CÁCH GIAO TIẾP:
- Thân thiện, nhiệt tình, trả lời ngắn gọn (2-4 câu), dùng emoji phù hợp

TÌM KIẾM ĐỊA ĐIỂM GẦN ĐÂY:
Khi người dùng hỏi về địa điểm gần đây và có LOCATION_CONTEXT, sử dụng [SEARCH_NEARBY:category|keyword].
Categories: restaurant, cafe, lodging, tourist_attraction, bar, night_club, shopping_mall.
Nếu người dùng hỏi món ăn cụ thể, dùng keyword: "quán phở" → [SEARCH_NEARBY:restaurant|pho]`

var nearbyMarker = regexp.MustCompile(`\[SEARCH_NEARBY:([^\]]+)\]`)

// Максимум мест в ответе и реплик диалога в контексте.
const (
	maxPlacesInReply = 10
	maxContextTurns  = 10
)

// Entitlements проверяет и списывает право пользователя на AI-поиск.
type Entitlements interface {
	ConsumeSearch(ctx context.Context, userUID string) error
}

// LLM генерирует ответ модели на промпт.
type LLM interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Places ищет места около координат.
type Places interface {
	SearchNearby(ctx context.Context, loc models.Location, category, keyword string, radius int) ([]models.Place, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует диалог с AI-ассистентом.
type Service struct {
	entitlements Entitlements
	llm          LLM
	places       Places
	cache        Cache
	sessionTTL   time.Duration
	log          *slog.Logger

	// now подменяется в тестах
	now func() time.Time
}

// New создает новый экземпляр Service.
func New(entitlements Entitlements, llm LLM, places Places, cache Cache,
	sessionTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		entitlements: entitlements,
		llm:          llm,
		places:       places,
		cache:        cache,
		sessionTTL:   sessionTTL,
		log:          log,
		now:          time.Now,
	}
}

func contextCacheKey(userUID, chatID string) string {
	return fmt.Sprintf("chatctx:%s:%s", userUID, chatID)
}

// Send обрабатывает сообщение пользователя. Право на поиск списывается
// до обращения к модели: ошибка внешнего сервиса пробный доступ не
// возвращает. Возвращает ответ ассистента и идентификатор диалога.
func (s *Service) Send(ctx context.Context, userUID string, req models.DummyChatMessage) (string, *models.ChatReply, error) {
	if err := s.entitlements.ConsumeSearch(ctx, userUID); err != nil {
		return "", nil, err
	}

	chatID := req.ChatID
	if chatID == "" {
		chatID = uuid.New().String()
	}

	history := s.loadContext(ctx, userUID, chatID)
	prompt := s.buildPrompt(history, req.Message, req.Location)

	reply, err := s.llm.GenerateContent(ctx, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	var nearby []models.Place
	if match := nearbyMarker.FindStringSubmatch(reply); match != nil && req.Location != nil {
		category, keyword := splitSearchParam(match[1])
		reply = strings.TrimSpace(nearbyMarker.ReplaceAllString(reply, ""))

		places, err := s.places.SearchNearby(ctx, *req.Location, category, keyword, 0)
		if err != nil {
			s.log.Warn("nearby search failed",
				slog.String("category", category), slog.Any("err", err))
			reply += "\n\nXin lỗi, có lỗi khi tìm kiếm địa điểm. Vui lòng thử lại! 🙏"
		} else {
			reply += formatPlaces(places, category, keyword)
			if len(places) > maxPlacesInReply {
				places = places[:maxPlacesInReply]
			}
			nearby = places
		}
	} else if match != nil {
		// Модель попросила поиск, но позиции нет
		reply = strings.TrimSpace(nearbyMarker.ReplaceAllString(reply, ""))
	}

	s.storeContext(ctx, userUID, chatID, history, req.Message, reply)

	return chatID, &models.ChatReply{
		Reply:        strings.TrimSpace(reply),
		Timestamp:    s.now().UTC(),
		NearbyPlaces: nearby,
	}, nil
}

// Nearby выполняет прямой поиск мест поблизости без участия модели.
// В отличие от Send, право пользователя не списывается.
func (s *Service) Nearby(ctx context.Context, req models.DummyNearby) ([]models.Place, error) {
	return s.places.SearchNearby(ctx, req.Location, req.Category, req.Keyword, req.Radius)
}

func (s *Service) loadContext(ctx context.Context, userUID, chatID string) *models.ChatContext {
	var history models.ChatContext
	cacheKey := contextCacheKey(userUID, chatID)
	found, err := s.cache.Get(ctx, cacheKey, &history)
	if err != nil {
		s.log.Warn("failed to load chat context", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if !found {
		return &models.ChatContext{}
	}
	return &history
}

func (s *Service) storeContext(ctx context.Context, userUID, chatID string, history *models.ChatContext, message, reply string) {
	history.Messages = append(history.Messages,
		models.ChatTurn{Role: "user", Content: message},
		models.ChatTurn{Role: "assistant", Content: reply},
	)
	if len(history.Messages) > maxContextTurns*2 {
		history.Messages = history.Messages[len(history.Messages)-maxContextTurns*2:]
	}

	cacheKey := contextCacheKey(userUID, chatID)
	if err := s.cache.Set(ctx, cacheKey, history, s.sessionTTL); err != nil {
		s.log.Warn("failed to store chat context", slog.String("key", cacheKey), slog.Any("err", err))
	}
}

func (s *Service) buildPrompt(history *models.ChatContext, message string, loc *models.Location) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	if loc != nil {
		fmt.Fprintf(&b, "\n\nLOCATION_CONTEXT: Người dùng hiện đang ở vị trí (%f, %f). "+
			"Bạn có thể sử dụng [SEARCH_NEARBY:category|keyword] để tìm địa điểm gần đây.",
			loc.Lat, loc.Lng)
	}

	if len(history.Messages) > 0 {
		b.WriteString("\n\nLỊCH SỬ HỘI THOẠI:")
		for _, turn := range history.Messages {
			fmt.Fprintf(&b, "\n%s: %s", turn.Role, turn.Content)
		}
	}

	fmt.Fprintf(&b, "\n\nNgười dùng hỏi: %s\n\nTrả lời (ngắn gọn, thân thiện):", message)
	return b.String()
}

func splitSearchParam(param string) (category, keyword string) {
	if before, after, found := strings.Cut(param, "|"); found {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return strings.TrimSpace(param), ""
}

func searchLabel(category, keyword string) string {
	label := keyword
	if label == "" {
		label = category
	}
	switch label {
	case "restaurant":
		return "nhà hàng"
	case "cafe":
		return "quán café"
	case "hotel", "lodging":
		return "khách sạn"
	case "tourist_attraction":
		return "điểm tham quan"
	}
	return label
}

func formatPlaces(places []models.Place, category, keyword string) string {
	label := searchLabel(category, keyword)
	if len(places) == 0 {
		return fmt.Sprintf("\n\nXin lỗi, tôi không tìm thấy %s phù hợp gần bạn. "+
			"Bạn có thể thử tìm loại địa điểm khác! 🔍", label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n\n📍 Tôi tìm thấy %d %s gần bạn:\n", len(places), label)
	for i, p := range places {
		fmt.Fprintf(&b, "\n%d. %s", i+1, p.Name)
		if p.Vicinity != "" {
			fmt.Fprintf(&b, " - %s", p.Vicinity)
		}
		if p.Rating > 0 {
			fmt.Fprintf(&b, " (⭐ %.1f)", p.Rating)
		}
	}
	b.WriteString("\n\n💡 Click vào địa điểm để xem trên bản đồ!")
	return b.String()
}
