// Package service 提供了搜索相关的业务逻辑。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"boxseek-go/internal/model"
	"boxseek-go/pkg/es"
	"boxseek-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// SearchService 接口定义了箱子搜索操作。
type SearchService interface {
	SearchBoxes(ctx context.Context, workspaceID, query string, topK int) ([]model.BoxSearchResult, error)
}

type searchService struct {
	esClient  *elasticsearch.Client
	indexName string
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(esClient *elasticsearch.Client, indexName string) SearchService {
	return &searchService{
		esClient:  esClient,
		indexName: indexName,
	}
}

// SearchBoxes 在工作区范围内按关键词搜索箱子。
// workspace_id 是 filter 级别的硬条件，跨工作区的文档永远不会出现在结果里。
func (s *searchService) SearchBoxes(ctx context.Context, workspaceID, query string, topK int) ([]model.BoxSearchResult, error) {
	log.Infof("[SearchService] 开始搜索箱子, workspaceId: %s, query: '%s', topK: %d", workspaceID, query, topK)

	if topK <= 0 {
		topK = 20
	}

	normalized := Normalize(query)
	if normalized == "" {
		return []model.BoxSearchResult{}, nil
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  normalized,
						"fields": []string{"name^3", "tags^2", "description", "search_text"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{
						"workspace_id": workspaceID,
					},
				},
			},
		},
		"size": topK,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		log.Errorf("[SearchService] 序列化 Elasticsearch 查询失败: %v", err)
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.indexName),
		s.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		log.Errorf("[SearchService] 向 Elasticsearch 发送搜索请求失败: %v", err)
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[SearchService] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.BoxSearchDoc `json:"_source"`
				Score  float64            `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		log.Errorf("[SearchService] 解析 Elasticsearch 响应失败: %v", err)
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.BoxSearchResult, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, model.BoxSearchResult{
			BoxID:       hit.Source.BoxID,
			ShortID:     hit.Source.ShortID,
			Name:        hit.Source.Name,
			Description: hit.Source.Description,
			Tags:        hit.Source.Tags,
			LocationID:  hit.Source.LocationID,
			Score:       hit.Score,
		})
	}

	log.Infof("[SearchService] 搜索完成, workspaceId: %s, 返回 %d 条结果", workspaceID, len(results))
	return results, nil
}

var searchSpaceRe = regexp.MustCompile(`\s+`)

// Normalize 对文本做轻量归一化：转小写并归一空白。
// 数据库里的 search_text 和查询词走同一条归一化路径。
func Normalize(s string) string {
	return strings.TrimSpace(searchSpaceRe.ReplaceAllString(strings.ToLower(s), " "))
}

// BuildSearchText 把箱子的名称、描述和标签拼成归一化的搜索文本。
func BuildSearchText(name, description string, tags []string) string {
	parts := make([]string, 0, 2+len(tags))
	if name != "" {
		parts = append(parts, name)
	}
	if description != "" {
		parts = append(parts, description)
	}
	parts = append(parts, tags...)
	return Normalize(strings.Join(parts, " "))
}

// esBoxIndexer 是 BoxIndexer 的 Elasticsearch 实现。
type esBoxIndexer struct {
	indexName string
}

// NewBoxIndexer 创建一个基于 Elasticsearch 的 BoxIndexer。
func NewBoxIndexer(indexName string) BoxIndexer {
	return &esBoxIndexer{indexName: indexName}
}

func (i *esBoxIndexer) Index(ctx context.Context, doc model.BoxSearchDoc) error {
	return es.IndexBox(ctx, i.indexName, doc)
}

func (i *esBoxIndexer) Remove(ctx context.Context, boxID string) error {
	return es.RemoveBox(ctx, i.indexName, boxID)
}
